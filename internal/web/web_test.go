package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mbops/stockroom/internal/auth"
	"github.com/mbops/stockroom/internal/domain/catalog"
	"github.com/mbops/stockroom/internal/domain/requests"
	"github.com/mbops/stockroom/internal/domain/users"
	"github.com/mbops/stockroom/internal/session"
)

/* fakes */

// fakeCatalog отдаёт каталог поверх того же MemStore, что и корзина,
// чтобы остатки в обоих местах совпадали.
type fakeCatalog struct {
	store     *requests.MemStore
	suppliers map[int64]*catalog.Supplier
	items     map[int64]catalog.Item
}

func newFakeCatalog(store *requests.MemStore) *fakeCatalog {
	return &fakeCatalog{
		store:     store,
		suppliers: map[int64]*catalog.Supplier{},
		items:     map[int64]catalog.Item{},
	}
}

func (f *fakeCatalog) addSupplier(id int64, name string, enforces bool) *catalog.Supplier {
	s := &catalog.Supplier{ID: id, Name: name, EnforcesCategories: enforces}
	f.suppliers[id] = s
	return s
}

func (f *fakeCatalog) addItem(supplierID int64, name string, stock int64, cat catalog.Category) catalog.Item {
	it := f.store.SeedItem(supplierID, name, stock, cat)
	f.items[it.ID] = it
	return it
}

func (f *fakeCatalog) ListSuppliers(context.Context) ([]catalog.Supplier, error) {
	var out []catalog.Supplier
	for _, s := range f.suppliers {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeCatalog) GetSupplier(_ context.Context, id int64) (*catalog.Supplier, error) {
	return f.suppliers[id], nil
}

func (f *fakeCatalog) CreateSupplier(_ context.Context, name string, enforces bool) (*catalog.Supplier, error) {
	id := int64(len(f.suppliers) + 1)
	for f.suppliers[id] != nil {
		id++
	}
	return f.addSupplier(id, name, enforces), nil
}

func (f *fakeCatalog) DeleteSupplier(_ context.Context, id int64) error {
	delete(f.suppliers, id)
	for itemID := range f.items {
		if f.items[itemID].SupplierID == id {
			delete(f.items, itemID)
		}
	}
	return nil
}

func (f *fakeCatalog) CreateItem(_ context.Context, supplierID int64, name string, stock int64, cat catalog.Category) (*catalog.Item, error) {
	it := f.addItem(supplierID, name, stock, cat)
	return &it, nil
}

func (f *fakeCatalog) ListItems(_ context.Context, supplierID int64) ([]catalog.Item, error) {
	var out []catalog.Item
	for id := range f.items {
		if it, ok := f.store.Item(id); ok && it.SupplierID == supplierID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetItemForSupplier(_ context.Context, itemID, supplierID int64) (*catalog.Item, error) {
	it, ok := f.store.Item(itemID)
	if !ok || it.SupplierID != supplierID {
		return nil, nil
	}
	return &it, nil
}

func (f *fakeCatalog) StockRows(context.Context) ([]catalog.StockRow, error) {
	var out []catalog.StockRow
	for id := range f.items {
		it, _ := f.store.Item(id)
		sup := f.suppliers[it.SupplierID]
		name := ""
		if sup != nil {
			name = sup.Name
		}
		out = append(out, catalog.StockRow{
			Supplier: name, Item: it.Name,
			Category: it.Category, CurrentStock: it.CurrentStock,
		})
	}
	return out, nil
}

type fakeUsers struct {
	byLogin map[string]*users.User
}

func (f *fakeUsers) GetByLogin(_ context.Context, login string) (*users.User, error) {
	return f.byLogin[strings.ToLower(login)], nil
}

func (f *fakeUsers) Create(_ context.Context, login, fullName string, role users.Role) (*users.User, error) {
	u := &users.User{
		ID:       int64(len(f.byLogin) + 1),
		Login:    strings.ToLower(login),
		FullName: fullName,
		Role:     role,
	}
	f.byLogin[u.Login] = u
	return u, nil
}

type fakeFlash struct {
	mu   sync.Mutex
	msgs map[uuid.UUID][]session.Message
}

func (f *fakeFlash) Push(_ context.Context, sid uuid.UUID, kind session.Kind, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs[sid] = append(f.msgs[sid], session.Message{Kind: kind, Text: text})
	return nil
}

func (f *fakeFlash) Pop(_ context.Context, sid uuid.UUID) ([]session.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.msgs[sid]
	delete(f.msgs, sid)
	return out, nil
}

func (f *fakeFlash) pending(sid uuid.UUID) []session.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]session.Message(nil), f.msgs[sid]...)
}

type fixture struct {
	h       *Handler
	routes  http.Handler
	catalog *fakeCatalog
	store   *requests.MemStore
	flash   *fakeFlash
	tokens  *auth.TokenService
	users   *fakeUsers
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := requests.NewMemStore()
	cat := newFakeCatalog(store)
	flash := &fakeFlash{msgs: map[uuid.UUID][]session.Message{}}
	dir := &fakeUsers{byLogin: map[string]*users.User{
		"dana": {ID: 1, Login: "dana", FullName: "Dana Miles", Role: users.RoleAdmin},
		"lee":  {ID: 2, Login: "lee", FullName: "", Role: users.RoleStaff},
	}}
	tokens := auth.NewTokenService("test-secret", time.Hour)
	log := slog.New(slog.NewTextHandler(&strings.Builder{}, nil))

	h := New(log, cat, dir, requests.NewService(store), flash, tokens, nil)
	return &fixture{
		h: h, routes: h.Routes(), catalog: cat, store: store,
		flash: flash, tokens: tokens, users: dir,
	}
}

func (fx *fixture) sessionCookie(t *testing.T, login string) *http.Cookie {
	t.Helper()
	u := fx.users.byLogin[login]
	if u == nil {
		t.Fatalf("no fixture user %q", login)
	}
	token, err := fx.tokens.Issue(u)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return &http.Cookie{Name: auth.SessionCookie, Value: token}
}

func flashCookieOf(sid uuid.UUID) *http.Cookie {
	return &http.Cookie{Name: flashCookie, Value: sid.String()}
}

func (fx *fixture) do(t *testing.T, method, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	fx.routes.ServeHTTP(rec, req)
	return rec
}

func wantFlash(t *testing.T, msgs []session.Message, text string) {
	t.Helper()
	for _, m := range msgs {
		if m.Text == text {
			return
		}
	}
	t.Errorf("flash %q not found in %+v", text, msgs)
}

/* tests */

func TestAuthGate(t *testing.T) {
	fx := newFixture(t)

	t.Run("AnonymousIsRejected", func(t *testing.T) {
		rec := fx.do(t, http.MethodGet, "/suppliers", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("UnknownLogin", func(t *testing.T) {
		rec := fx.do(t, http.MethodPost, "/login", url.Values{"login": {"nobody"}})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("LoginSetsCookieAndRedirects", func(t *testing.T) {
		rec := fx.do(t, http.MethodPost, "/login", url.Values{"login": {"dana"}})
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want 303", rec.Code)
		}
		if rec.Header().Get("Location") != "/suppliers" {
			t.Errorf("Location = %q", rec.Header().Get("Location"))
		}
		var found bool
		for _, c := range rec.Result().Cookies() {
			if c.Name == auth.SessionCookie && c.Value != "" {
				found = true
			}
		}
		if !found {
			t.Error("session cookie was not set")
		}
	})

	t.Run("CookieAuthenticates", func(t *testing.T) {
		rec := fx.do(t, http.MethodGet, "/suppliers", nil, fx.sessionCookie(t, "lee"))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var body struct {
			StaffDisplay string `json:"staff_display"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.StaffDisplay != "lee" {
			t.Errorf("staff_display = %q, want login fallback", body.StaffDisplay)
		}
	})
}

func TestListItemsGrouping(t *testing.T) {
	fx := newFixture(t)
	fx.catalog.addSupplier(1, "MB Warehouse", true)
	fx.catalog.addSupplier(2, "Dairy Co", false)
	fx.catalog.addItem(1, "Flour", 10, catalog.CategoryIngredient)
	fx.catalog.addItem(1, "Bags", 50, catalog.CategoryPackaging)
	fx.catalog.addItem(2, "Milk", 30, catalog.CategoryNone)
	cookie := fx.sessionCookie(t, "lee")

	t.Run("EnforcingSupplierIsGrouped", func(t *testing.T) {
		rec := fx.do(t, http.MethodGet, "/suppliers/1", nil, cookie)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var body struct {
			ItemGroups map[string][]itemView `json:"item_groups"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(body.ItemGroups["Ingredients"]) != 1 || len(body.ItemGroups["Packaging"]) != 1 {
			t.Errorf("unexpected groups: %+v", body.ItemGroups)
		}
	})

	t.Run("PlainSupplierHasNoGroups", func(t *testing.T) {
		rec := fx.do(t, http.MethodGet, "/suppliers/2", nil, cookie)
		var body map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if _, ok := body["item_groups"]; ok {
			t.Error("item_groups must be absent for a plain supplier")
		}
	})

	t.Run("MissingSupplier", func(t *testing.T) {
		rec := fx.do(t, http.MethodGet, "/suppliers/99", nil, cookie)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestCreateItem(t *testing.T) {
	fx := newFixture(t)
	fx.catalog.addSupplier(1, "MB Warehouse", true)
	sid := uuid.New()
	admin := fx.sessionCookie(t, "dana")
	staff := fx.sessionCookie(t, "lee")

	t.Run("StaffCannotCreate", func(t *testing.T) {
		rec := fx.do(t, http.MethodPost, "/suppliers/1/items",
			url.Values{"new_item_name": {"Flour"}, "new_item_stock": {"5"}},
			staff, flashCookieOf(sid))
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want 303", rec.Code)
		}
		wantFlash(t, fx.flash.pending(sid), "Only staff users can add inventory items.")
	})

	t.Run("UnparsableStockIsRejected", func(t *testing.T) {
		rec := fx.do(t, http.MethodPost, "/suppliers/1/items",
			url.Values{
				"new_item_name":     {"Flour"},
				"new_item_stock":    {"abc"},
				"new_item_category": {"ingredient"},
			},
			admin, flashCookieOf(sid))
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want 303", rec.Code)
		}
		wantFlash(t, fx.flash.pending(sid), "Stock must be zero or greater.")
		items, _ := fx.catalog.ListItems(context.Background(), 1)
		if len(items) != 0 {
			t.Errorf("no item may be persisted, got %d", len(items))
		}
	})

	t.Run("CategoryRequiredForEnforcingSupplier", func(t *testing.T) {
		fx.do(t, http.MethodPost, "/suppliers/1/items",
			url.Values{"new_item_name": {"Flour"}, "new_item_stock": {"5"}},
			admin, flashCookieOf(sid))
		wantFlash(t, fx.flash.pending(sid), "Please pick a valid category.")
	})

	t.Run("ValidItemIsCreated", func(t *testing.T) {
		fx.do(t, http.MethodPost, "/suppliers/1/items",
			url.Values{
				"new_item_name":     {"Flour"},
				"new_item_stock":    {"7"},
				"new_item_category": {"ingredient"},
			},
			admin, flashCookieOf(sid))
		wantFlash(t, fx.flash.pending(sid), "Added new item 'Flour' with stock 7.")
		items, _ := fx.catalog.ListItems(context.Background(), 1)
		if len(items) != 1 || items[0].CurrentStock != 7 {
			t.Errorf("unexpected items: %+v", items)
		}
	})
}

func TestCartFlow(t *testing.T) {
	fx := newFixture(t)
	fx.catalog.addSupplier(2, "Dairy Co", false)
	item := fx.catalog.addItem(2, "Milk", 10, catalog.CategoryNone)
	cookie := fx.sessionCookie(t, "lee")
	sid := uuid.New()
	flash := flashCookieOf(sid)

	addForm := func(qty string) url.Values {
		return url.Values{
			"item_id":  {fmt.Sprint(item.ID)},
			"quantity": {qty},
		}
	}

	t.Run("AddToCart", func(t *testing.T) {
		rec := fx.do(t, http.MethodPost, "/suppliers/2/cart", addForm("4"), cookie, flash)
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want 303", rec.Code)
		}
		if rec.Header().Get("Location") != "/suppliers/2" {
			t.Errorf("Location = %q", rec.Header().Get("Location"))
		}
		wantFlash(t, fx.flash.pending(sid), "Added 4 x Milk to the shared list.")
	})

	t.Run("SecondAddMergesLine", func(t *testing.T) {
		fx.do(t, http.MethodPost, "/suppliers/2/cart", addForm("3"), cookie, flash)

		rec := fx.do(t, http.MethodGet, "/cart", nil, cookie, flash)
		var body struct {
			CartItems  []lineView `json:"cart_items"`
			TotalItems int64      `json:"total_items"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(body.CartItems) != 1 {
			t.Fatalf("expected one merged line, got %d", len(body.CartItems))
		}
		if body.CartItems[0].Quantity != 7 || body.TotalItems != 7 {
			t.Errorf("quantity = %d, total = %d, want 7/7", body.CartItems[0].Quantity, body.TotalItems)
		}
	})

	t.Run("FlashIsReadOnce", func(t *testing.T) {
		rec := fx.do(t, http.MethodGet, "/cart", nil, cookie, flash)
		var body struct {
			Messages []session.Message `json:"messages"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(body.Messages) != 0 {
			t.Errorf("messages must be cleared after the first read, got %+v", body.Messages)
		}
	})

	t.Run("OversizedAddIsRejected", func(t *testing.T) {
		fx.do(t, http.MethodPost, "/suppliers/2/cart", addForm("100"), cookie, flash)
		wantFlash(t, fx.flash.pending(sid), "Requested quantity exceeds current stock.")
	})

	t.Run("UnknownItem", func(t *testing.T) {
		form := url.Values{"item_id": {"999"}, "quantity": {"1"}}
		fx.do(t, http.MethodPost, "/suppliers/2/cart", form, cookie, flash)
		wantFlash(t, fx.flash.pending(sid), "Invalid item selected.")
	})

	t.Run("Completion", func(t *testing.T) {
		rec := fx.do(t, http.MethodPost, "/cart/complete", nil, cookie, flash)
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want 303", rec.Code)
		}
		if rec.Header().Get("Location") != "/suppliers" {
			t.Errorf("Location = %q", rec.Header().Get("Location"))
		}
		got, _ := fx.store.Item(item.ID)
		if got.CurrentStock != 3 {
			t.Errorf("stock = %d, want 3", got.CurrentStock)
		}
	})

	t.Run("EmptyCartCompletion", func(t *testing.T) {
		fx.do(t, http.MethodPost, "/cart/complete", nil, cookie, flash)
		wantFlash(t, fx.flash.pending(sid), "Your cart is empty.")
	})
}

func TestUpdateCartLine(t *testing.T) {
	fx := newFixture(t)
	fx.catalog.addSupplier(2, "Dairy Co", false)
	item := fx.catalog.addItem(2, "Milk", 10, catalog.CategoryNone)
	cookie := fx.sessionCookie(t, "lee")
	sid := uuid.New()
	flash := flashCookieOf(sid)

	fx.do(t, http.MethodPost, "/suppliers/2/cart",
		url.Values{"item_id": {fmt.Sprint(item.ID)}, "quantity": {"5"}}, cookie, flash)

	lineID := func(t *testing.T) int64 {
		t.Helper()
		rec := fx.do(t, http.MethodGet, "/cart", nil, cookie, flash)
		var body struct {
			CartItems []lineView `json:"cart_items"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(body.CartItems) == 0 {
			t.Fatal("cart is empty")
		}
		return body.CartItems[0].ID
	}

	t.Run("UpdateQuantity", func(t *testing.T) {
		id := lineID(t)
		fx.do(t, http.MethodPost, fmt.Sprintf("/cart/lines/%d", id),
			url.Values{"quantity": {"2"}}, cookie, flash)
		wantFlash(t, fx.flash.pending(sid), "Updated Milk to 2.")
	})

	t.Run("ZeroRemovesLine", func(t *testing.T) {
		id := lineID(t)
		fx.do(t, http.MethodPost, fmt.Sprintf("/cart/lines/%d", id),
			url.Values{"quantity": {"0"}}, cookie, flash)
		wantFlash(t, fx.flash.pending(sid), "Removed Milk from the list.")

		fx.do(t, http.MethodPost, "/cart/complete", nil, cookie, flash)
		wantFlash(t, fx.flash.pending(sid), "Your cart is empty.")
	})

	t.Run("NoActiveCart", func(t *testing.T) {
		fresh := newFixture(t)
		c := fresh.sessionCookie(t, "lee")
		s := uuid.New()
		rec := fresh.do(t, http.MethodPost, "/cart/lines/1",
			url.Values{"quantity": {"1"}}, c, flashCookieOf(s))
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want 303", rec.Code)
		}
		wantFlash(t, fresh.flash.pending(s), "No active cart to update.")
	})

	t.Run("StaleLineIs404", func(t *testing.T) {
		// список ещё активен, но такой строки в нём нет
		rec := fx.do(t, http.MethodPost, "/cart/lines/12345",
			url.Values{"quantity": {"1"}}, cookie, flash)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})
}

func TestRegisterStaff(t *testing.T) {
	fx := newFixture(t)
	admin := fx.sessionCookie(t, "dana")
	staff := fx.sessionCookie(t, "lee")

	t.Run("StaffForbidden", func(t *testing.T) {
		rec := fx.do(t, http.MethodPost, "/staff",
			url.Values{"login": {"pat"}}, staff)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("AdminRegistersAndNewStaffCanLogIn", func(t *testing.T) {
		rec := fx.do(t, http.MethodPost, "/staff",
			url.Values{"login": {"Pat"}, "full_name": {"Pat Quinn"}}, admin)
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want 303", rec.Code)
		}
		login := fx.do(t, http.MethodPost, "/login", url.Values{"login": {"pat"}})
		if login.Code != http.StatusSeeOther {
			t.Errorf("new staff login status = %d, want 303", login.Code)
		}
	})
}

func TestSupplierManagement(t *testing.T) {
	fx := newFixture(t)
	admin := fx.sessionCookie(t, "dana")
	staff := fx.sessionCookie(t, "lee")

	t.Run("StaffCannotCreate", func(t *testing.T) {
		rec := fx.do(t, http.MethodPost, "/suppliers",
			url.Values{"name": {"Dairy Co"}}, staff)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("AdminCreates", func(t *testing.T) {
		rec := fx.do(t, http.MethodPost, "/suppliers",
			url.Values{"name": {"Dairy Co"}}, admin)
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want 303", rec.Code)
		}
		suppliers, _ := fx.catalog.ListSuppliers(context.Background())
		if len(suppliers) != 1 || suppliers[0].Name != "Dairy Co" {
			t.Errorf("unexpected suppliers: %+v", suppliers)
		}
	})

	t.Run("DeleteCascadesToItems", func(t *testing.T) {
		suppliers, _ := fx.catalog.ListSuppliers(context.Background())
		id := suppliers[0].ID
		fx.catalog.addItem(id, "Milk", 10, catalog.CategoryNone)

		rec := fx.do(t, http.MethodPost, fmt.Sprintf("/suppliers/%d/delete", id), nil, admin)
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want 303", rec.Code)
		}
		items, _ := fx.catalog.ListItems(context.Background(), id)
		if len(items) != 0 {
			t.Errorf("items must cascade away, got %+v", items)
		}
	})
}

func TestExportStockRequiresAdmin(t *testing.T) {
	fx := newFixture(t)
	fx.catalog.addSupplier(2, "Dairy Co", false)
	fx.catalog.addItem(2, "Milk", 10, catalog.CategoryNone)

	t.Run("StaffForbidden", func(t *testing.T) {
		rec := fx.do(t, http.MethodGet, "/reports/stock.xlsx", nil, fx.sessionCookie(t, "lee"))
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("AdminGetsWorkbook", func(t *testing.T) {
		rec := fx.do(t, http.MethodGet, "/reports/stock.xlsx", nil, fx.sessionCookie(t, "dana"))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
			t.Errorf("Content-Type = %q", ct)
		}
		if rec.Body.Len() == 0 {
			t.Error("empty workbook body")
		}
	})
}
