package user

// ListFilter narrows a list query. Nil pointers mean "no constraint".
type ListFilter struct {
	NameQuery string // case-insensitive substring of Name
	MinAge    *int
	MaxAge    *int
	IsActive  *bool
	Page      int64 // 1-based
	Limit     int64
}

// Offset returns the number of records to skip for the requested page.
func (f ListFilter) Offset() int64 {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// TotalPages returns how many pages of Limit records hold total records.
func (f ListFilter) TotalPages(total int64) int64 {
	if f.Limit <= 0 {
		return 0
	}
	return (total + f.Limit - 1) / f.Limit
}
