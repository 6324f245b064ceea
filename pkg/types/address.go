package types

import "strings"

// Address is the shipping destination snapshot stored on orders as jsonb.
type Address struct {
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
}

// Normalize fills defaults and trims whitespace in place.
func (a *Address) Normalize() {
	a.Line1 = strings.TrimSpace(a.Line1)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.TrimSpace(a.Country)
	if a.Country == "" {
		a.Country = "US"
	}
}

// Complete reports whether every required field is present.
func (a Address) Complete() bool {
	return a.Line1 != "" && a.City != "" && a.State != "" && a.PostalCode != ""
}
