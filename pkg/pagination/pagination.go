package pagination

// Page-based pagination for list endpoints. Clients pass page/limit query
// parameters; responses carry the total row count and derived page count.

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any list query can request.
	MaxLimit = 100
)

// Params holds pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Result carries the page metadata returned alongside list payloads.
type Result struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// NormalizePage clamps the page number to 1 or greater.
func NormalizePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}

// Normalize returns a copy of p with both fields clamped.
func (p Params) Normalize() Params {
	return Params{Page: NormalizePage(p.Page), Limit: NormalizeLimit(p.Limit)}
}

// Offset converts the page number into a row offset.
func (p Params) Offset() int {
	normalized := p.Normalize()
	return (normalized.Page - 1) * normalized.Limit
}

// BuildResult computes the page count as ceil(total/limit).
func BuildResult(params Params, total int64) Result {
	normalized := params.Normalize()
	pages := int((total + int64(normalized.Limit) - 1) / int64(normalized.Limit))
	return Result{
		Page:  normalized.Page,
		Limit: normalized.Limit,
		Total: total,
		Pages: pages,
	}
}
