package requests

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mbops/stockroom/internal/domain/catalog"
)

// MemStore — хранилище в памяти для тестов и локального запуска без
// Postgres. Контракт тот же, что у PgStore; вместо транзакции — мьютекс.
type MemStore struct {
	mu     sync.Mutex
	nextID int64

	items map[int64]*catalog.Item
	lists map[int64]*List
	lines map[int64]*Line
}

func NewMemStore() *MemStore {
	return &MemStore{
		items: map[int64]*catalog.Item{},
		lists: map[int64]*List{},
		lines: map[int64]*Line{},
	}
}

// SeedItem кладёт позицию каталога в память и возвращает её копию.
func (s *MemStore) SeedItem(supplierID int64, name string, stock int64, category catalog.Category) catalog.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	it := &catalog.Item{
		ID:           s.nextID,
		SupplierID:   supplierID,
		Name:         name,
		CurrentStock: stock,
		Category:     category.Normalize(),
		CreatedAt:    time.Now(),
	}
	s.items[it.ID] = it
	return *it
}

// Item возвращает текущее состояние позиции (для проверок в тестах).
func (s *MemStore) Item(id int64) (catalog.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return catalog.Item{}, false
	}
	return *it, true
}

func (s *MemStore) ActiveList(context.Context) (*List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked(), nil
}

func (s *MemStore) activeLocked() *List {
	var oldest *List
	for _, l := range s.lists {
		if l.IsCompleted {
			continue
		}
		if oldest == nil || l.CreatedAt.Before(oldest.CreatedAt) {
			oldest = l
		}
	}
	if oldest == nil {
		return nil
	}
	cp := *oldest
	return &cp
}

func (s *MemStore) CreateActiveList(_ context.Context, userID int64, staffName string) (*List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing := s.activeLocked(); existing != nil {
		return existing, nil
	}
	s.nextID++
	l := &List{ID: s.nextID, UserID: userID, StaffName: staffName, CreatedAt: time.Now()}
	s.lists[l.ID] = l
	cp := *l
	return &cp, nil
}

func (s *MemStore) UpsertLine(_ context.Context, listID, itemID, qty int64) (*Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ln := range s.lines {
		if ln.ListID == listID && ln.ItemID == itemID {
			ln.Quantity += qty
			cp := *ln
			return &cp, nil
		}
	}
	s.nextID++
	ln := &Line{ID: s.nextID, ListID: listID, ItemID: itemID, Quantity: qty}
	s.lines[ln.ID] = ln
	cp := *ln
	return &cp, nil
}

func (s *MemStore) Line(_ context.Context, listID, lineID int64) (*Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ln, ok := s.lines[lineID]
	if !ok || ln.ListID != listID {
		return nil, nil
	}
	cp := *ln
	return &cp, nil
}

func (s *MemStore) SetLineQuantity(_ context.Context, lineID, qty int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ln, ok := s.lines[lineID]; ok {
		ln.Quantity = qty
	}
	return nil
}

func (s *MemStore) DeleteLine(_ context.Context, lineID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lines, lineID)
	return nil
}

func (s *MemStore) Lines(_ context.Context, listID int64) ([]LineView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.linesLocked(listID), nil
}

func (s *MemStore) linesLocked(listID int64) []LineView {
	var out []LineView
	for _, ln := range s.lines {
		if ln.ListID != listID {
			continue
		}
		lv := LineView{Line: *ln}
		if it, ok := s.items[ln.ItemID]; ok {
			lv.ItemName = it.Name
			lv.CurrentStock = it.CurrentStock
		}
		out = append(out, lv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemStore) CompleteList(_ context.Context, listID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.linesLocked(listID)
	if len(lines) == 0 {
		return ErrEmptyList
	}
	if short := findShortfall(lines); short != nil {
		return &InsufficientStockError{Item: short.ItemName}
	}
	for _, ln := range lines {
		s.items[ln.ItemID].CurrentStock -= ln.Quantity
	}
	s.lists[listID].IsCompleted = true
	return nil
}
