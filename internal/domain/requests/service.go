package requests

import (
	"context"

	"github.com/mbops/stockroom/internal/domain/catalog"
)

// Store — хранилище списков заявок. Продакшен — Postgres (PgStore),
// в тестах — память (MemStore).
type Store interface {
	// ActiveList возвращает самый старый незавершённый список (nil — нет).
	ActiveList(ctx context.Context) (*List, error)
	// CreateActiveList создаёт активный список, если его ещё нет;
	// при гонке возвращает уже существующий.
	CreateActiveList(ctx context.Context, userID int64, staffName string) (*List, error)
	// UpsertLine добавляет количество к строке (list,item) или создаёт её.
	UpsertLine(ctx context.Context, listID, itemID, qty int64) (*Line, error)
	// Line возвращает строку в пределах списка (nil — нет).
	Line(ctx context.Context, listID, lineID int64) (*Line, error)
	SetLineQuantity(ctx context.Context, lineID, qty int64) error
	DeleteLine(ctx context.Context, lineID int64) error
	Lines(ctx context.Context, listID int64) ([]LineView, error)
	// CompleteList — атомарное завершение: проверка всех строк по снимку,
	// затем списание остатков и пометка is_completed.
	CompleteList(ctx context.Context, listID int64) error
}

// Actor — тот, от чьего имени заводится список.
type Actor struct {
	UserID int64
	Name   string
}

type Service struct {
	store Store
}

func NewService(store Store) *Service { return &Service{store: store} }

// Active возвращает общий активный список; его отсутствие — не ошибка.
func (s *Service) Active(ctx context.Context) (*List, error) {
	return s.store.ActiveList(ctx)
}

// ActiveOrCreate отдаёт активный список, создавая его при первом
// добавлении в корзину. Список общий: кто создал — не важно.
func (s *Service) ActiveOrCreate(ctx context.Context, actor Actor) (*List, error) {
	list, err := s.store.ActiveList(ctx)
	if err != nil || list != nil {
		return list, err
	}
	return s.store.CreateActiveList(ctx, actor.UserID, actor.Name)
}

// AddToCart проверяет позицию и количество, затем наращивает строку.
// Остаток не трогаем: списание происходит только при завершении.
func (s *Service) AddToCart(ctx context.Context, list *List, item *catalog.Item, qty int64) (*Line, error) {
	if item == nil {
		return nil, ErrUnknownItem
	}
	if qty < 1 {
		return nil, ErrQuantityTooSmall
	}
	// Сравниваем только это добавление с текущим остатком; уже набранное
	// в той же строке не учитывается — окончательный арбитр у завершения.
	if qty > item.CurrentStock {
		return nil, ErrExceedsStock
	}
	return s.store.UpsertLine(ctx, list.ID, item.ID, qty)
}

// UpdateLine меняет количество; меньше единицы — строка удаляется.
// Возвращает true, если строка была удалена.
func (s *Service) UpdateLine(ctx context.Context, list *List, lineID, qty int64) (bool, error) {
	line, err := s.store.Line(ctx, list.ID, lineID)
	if err != nil {
		return false, err
	}
	if line == nil {
		return false, ErrNotFound
	}
	if qty < 1 {
		return true, s.store.DeleteLine(ctx, line.ID)
	}
	return false, s.store.SetLineQuantity(ctx, line.ID, qty)
}

func (s *Service) Lines(ctx context.Context, list *List) ([]LineView, error) {
	if list == nil {
		return nil, nil
	}
	return s.store.Lines(ctx, list.ID)
}

// TotalQuantity — суммарное количество по корзине для показа.
func TotalQuantity(lines []LineView) int64 {
	var total int64
	for _, l := range lines {
		total += l.Quantity
	}
	return total
}

// Complete превращает активный список в списание остатков.
// Пустая корзина отклоняется до открытия транзакции.
func (s *Service) Complete(ctx context.Context, list *List) error {
	if list == nil {
		return ErrEmptyList
	}
	lines, err := s.store.Lines(ctx, list.ID)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return ErrEmptyList
	}
	return s.store.CompleteList(ctx, list.ID)
}
