package model

// Default studio shape used when the backend omits row or column counts.
const (
	DefaultStudioRows    = 5
	DefaultStudioColumns = 20
)

// Studio is the auditorium a schedule plays in.  Rows and Columns describe a
// rectangular seating layout; both may be missing (zero) in older payloads.
type Studio struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Rows    int    `json:"rows,omitempty"`
	Columns int    `json:"columns,omitempty"`
}

// Shape returns the effective row and column counts, substituting the
// defaults for absent values.
func (s Studio) Shape() (rows, columns int) {
	rows, columns = s.Rows, s.Columns
	if rows <= 0 {
		rows = DefaultStudioRows
	}
	if columns <= 0 {
		columns = DefaultStudioColumns
	}
	return rows, columns
}
