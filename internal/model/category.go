package model

import "strings"

// Category is the fixed set of document categories.
type Category string

const (
	CategoryPersonal     Category = "Personal"
	CategoryProfessional Category = "Professional"
	CategoryFinancial    Category = "Financial"
	CategoryLegal        Category = "Legal"
	CategoryMedical      Category = "Medical"
	CategoryOther        Category = "Other"
)

// DefaultCategory is used when the server omits the category.
const DefaultCategory = CategoryPersonal

// Categories lists every category in display order.
var Categories = []Category{
	CategoryPersonal,
	CategoryProfessional,
	CategoryFinancial,
	CategoryLegal,
	CategoryMedical,
	CategoryOther,
}

// ParseCategory maps s onto the enumerated set, case-insensitively.
// An empty string yields DefaultCategory; any other unknown value is Other.
func ParseCategory(s string) Category {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultCategory
	}
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c
		}
	}
	return CategoryOther
}

// Valid reports whether c is one of the enumerated categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}
