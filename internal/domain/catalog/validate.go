package catalog

import (
	"errors"
	"strconv"
	"strings"
)

var (
	ErrNameRequired  = errors.New("item name is required")
	ErrNegativeStock = errors.New("stock must be zero or greater")
	ErrBadCategory   = errors.New("category is not recognized")
)

// ParseStock превращает пользовательский ввод в количество.
// Нечитаемое значение даёт -1 и отсекается обычной валидацией.
func ParseStock(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return -1
	}
	return n
}

// ValidateNewItem проверяет поля новой позиции в том же порядке,
// в котором их видит пользователь формы.
func ValidateNewItem(name string, stock int64, category Category, supplier *Supplier) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired
	}
	if stock < 0 {
		return ErrNegativeStock
	}
	if supplier != nil && supplier.EnforcesCategories && !category.Valid() {
		return ErrBadCategory
	}
	return nil
}

// GroupByCategory раскладывает позиции склада по категориям для показа.
func GroupByCategory(items []Item) map[Category][]Item {
	groups := map[Category][]Item{
		CategoryIngredient: nil,
		CategoryPackaging:  nil,
	}
	for _, it := range items {
		if it.Category.Valid() {
			groups[it.Category] = append(groups[it.Category], it)
		}
	}
	return groups
}
