package requests

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound — ссылка на несуществующую строку/список.
	ErrNotFound = errors.New("request entry not found")
	// ErrUnknownItem — позиция не найдена у выбранного поставщика.
	ErrUnknownItem = errors.New("invalid item selected")
	// ErrQuantityTooSmall — в корзину можно класть только от 1 шт.
	ErrQuantityTooSmall = errors.New("quantity must be at least 1")
	// ErrExceedsStock — разовая заявка больше текущего остатка.
	ErrExceedsStock = errors.New("requested quantity exceeds current stock")
	// ErrEmptyList — завершение пустого списка; транзакция не открывается.
	ErrEmptyList = errors.New("request list is empty")
)

// InsufficientStockError — отказ фазы проверки при завершении:
// по какой именно позиции не хватило остатка.
type InsufficientStockError struct {
	Item string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s", e.Item)
}
