package service

// Identity is the authenticated caller, resolved by the authentication
// collaborator before a request reaches the store.
type Identity struct {
	UserID string
	Role   string
}

// Elevated reports whether the caller may act on documents they do not own.
func (i Identity) Elevated() bool {
	return i.Role == "admin"
}

// Pagination is a 1-based page request.
type Pagination struct {
	Page int
	Size int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (p Pagination) limit() int {
	if p.Size <= 0 {
		return defaultPageSize
	}
	if p.Size > maxPageSize {
		return maxPageSize
	}
	return p.Size
}

func (p Pagination) offset() int {
	page := p.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * p.limit()
}

// hasMore reports whether rows remain beyond this page.
func (p Pagination) hasMore(total int64) bool {
	return int64(p.offset()+p.limit()) < total
}
