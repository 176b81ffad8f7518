package entities

// Category is a row of the categories table. MedicineCount is only populated
// by reporting queries.
type Category struct {
	ID            int64  `json:"id" db:"id"`
	Slug          string `json:"slug" db:"slug"`
	Name          string `json:"name" db:"name"`
	MedicineCount int    `json:"medicine_count,omitempty" db:"medicine_count"`
}
