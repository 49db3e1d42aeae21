package requests

import "time"

// List — общий активный список заявок (одна «корзина» на всех).
type List struct {
	ID          int64
	UserID      int64 // 0 — без привязки к аккаунту
	StaffName   string
	CreatedAt   time.Time
	IsCompleted bool
}

type Line struct {
	ID       int64
	ListID   int64
	ItemID   int64
	Quantity int64
}

// LineView — строка списка вместе с позицией каталога,
// как её видит корзина и фаза проверки при завершении.
type LineView struct {
	Line
	ItemName     string
	CurrentStock int64
}

// findShortfall — фаза проверки: первая строка, для которой заявленное
// количество превышает остаток. Отдельный проход по снимку, чтобы
// применение либо происходило целиком, либо не начиналось вовсе.
func findShortfall(lines []LineView) *LineView {
	for i := range lines {
		if lines[i].Quantity > lines[i].CurrentStock {
			return &lines[i]
		}
	}
	return nil
}
