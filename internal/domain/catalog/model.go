package catalog

import "time"

type Category string

const (
	CategoryIngredient Category = "ingredient"
	CategoryPackaging  Category = "packaging"
	CategoryNone       Category = ""
)

func (c Category) Valid() bool {
	return c == CategoryIngredient || c == CategoryPackaging
}

// Normalize сбрасывает нераспознанную категорию в пустую.
func (c Category) Normalize() Category {
	if c.Valid() {
		return c
	}
	return CategoryNone
}

type Supplier struct {
	ID   int64
	Name string
	// EnforcesCategories: категория обязательна при создании позиции,
	// а список позиций группируется по категориям.
	EnforcesCategories bool
	CreatedAt          time.Time
}

type Item struct {
	ID           int64
	SupplierID   int64
	Name         string
	CurrentStock int64
	Category     Category
	CreatedAt    time.Time
}

// StockRow — строка выгрузки остатков по всем поставщикам.
type StockRow struct {
	Supplier     string
	Item         string
	Category     Category
	CurrentStock int64
}
