package store

// Pagination limits.
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

// PaginationParams controls cursor-based listing.
type PaginationParams struct {
	Limit  int
	Cursor string
}

// DefaultPaginationParams returns the default page settings.
func DefaultPaginationParams() PaginationParams {
	return PaginationParams{Limit: DefaultPageLimit}
}

// Validate clamps the limit into [1, MaxPageLimit].
func (p *PaginationParams) Validate() {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
}
