package model

// Major represents a field of study listed in the handbook.
// The title is its only attribute and acts as the primary key.
type Major struct {
	Title string `json:"title"`
}

// MajorUnits is one major block of a scraped handbook together with the
// names of the units it requires.
type MajorUnits struct {
	Title string   `json:"title"`
	Units []string `json:"units"`
}
