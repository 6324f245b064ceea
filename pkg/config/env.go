package config

// EnvPrefix is passed to envconfig; variable names already embed it so the
// prefix itself stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "SHOPVITE_DB_DSN"
	EnvDBHost = "SHOPVITE_DB_HOST"
	EnvDBUser = "SHOPVITE_DB_USER"
	EnvDBName = "SHOPVITE_DB_NAME"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
