// Package web — HTTP-поверхность: поставщики, позиции, общая корзина
// и завершение заявки. Ответы — JSON; успешные мутации отвечают
// 303 See Other на следующий экран, сообщения едут через flash-сессию.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mbops/stockroom/internal/auth"
	"github.com/mbops/stockroom/internal/domain/catalog"
	"github.com/mbops/stockroom/internal/domain/requests"
	"github.com/mbops/stockroom/internal/domain/users"
	"github.com/mbops/stockroom/internal/session"
)

const flashCookie = "stockroom_flash"

type catalogStore interface {
	ListSuppliers(ctx context.Context) ([]catalog.Supplier, error)
	GetSupplier(ctx context.Context, id int64) (*catalog.Supplier, error)
	CreateSupplier(ctx context.Context, name string, enforcesCategories bool) (*catalog.Supplier, error)
	DeleteSupplier(ctx context.Context, id int64) error
	CreateItem(ctx context.Context, supplierID int64, name string, stock int64, category catalog.Category) (*catalog.Item, error)
	ListItems(ctx context.Context, supplierID int64) ([]catalog.Item, error)
	GetItemForSupplier(ctx context.Context, itemID, supplierID int64) (*catalog.Item, error)
	StockRows(ctx context.Context) ([]catalog.StockRow, error)
}

type userDirectory interface {
	GetByLogin(ctx context.Context, login string) (*users.User, error)
	Create(ctx context.Context, login, fullName string, role users.Role) (*users.User, error)
}

type flashStore interface {
	Push(ctx context.Context, sid uuid.UUID, kind session.Kind, text string) error
	Pop(ctx context.Context, sid uuid.UUID) ([]session.Message, error)
}

type completionNotifier interface {
	RequestCompleted(list *requests.List, lines []requests.LineView)
}

type Handler struct {
	log     *slog.Logger
	catalog catalogStore
	users   userDirectory
	carts   *requests.Service
	flash   flashStore
	tokens  *auth.TokenService
	notify  completionNotifier
}

func New(log *slog.Logger, cat catalogStore, dir userDirectory,
	carts *requests.Service, flash flashStore,
	tokens *auth.TokenService, notify completionNotifier) *Handler {

	return &Handler{
		log: log, catalog: cat, users: dir, carts: carts,
		flash: flash, tokens: tokens, notify: notify,
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)

	r.Group(func(r chi.Router) {
		r.Use(h.tokens.Middleware, auth.RequireActor)

		r.Get("/suppliers", h.listSuppliers)
		r.Post("/suppliers", h.createSupplier)
		r.Get("/suppliers/{supplierID}", h.listItems)
		r.Post("/suppliers/{supplierID}/delete", h.deleteSupplier)
		r.Post("/suppliers/{supplierID}/items", h.createItem)
		r.Post("/suppliers/{supplierID}/cart", h.addToCart)

		r.Get("/cart", h.viewCart)
		r.Post("/cart/lines/{lineID}", h.updateCartLine)
		r.Post("/cart/complete", h.completeRequest)

		r.Post("/staff", h.registerStaff)

		r.Get("/reports/stock.xlsx", h.exportStock)
	})
	return r
}

/* helpers */

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("write response failed", "err", err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// sessionID достаёт идентификатор flash-сессии из куки, при
// необходимости заводя новый.
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) uuid.UUID {
	if c, err := r.Cookie(flashCookie); err == nil {
		if sid, err := uuid.Parse(c.Value); err == nil {
			return sid
		}
	}
	sid := uuid.New()
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    sid.String(),
		Path:     "/",
		HttpOnly: true,
	})
	return sid
}

func (h *Handler) pushFlash(r *http.Request, sid uuid.UUID, kind session.Kind, text string) {
	if err := h.flash.Push(r.Context(), sid, kind, text); err != nil {
		h.log.Error("flash push failed", "err", err)
	}
}

// parseID разбирает числовой параметр; мусор даёт 0 и дальше
// отсеивается обычными проверками «не найдено».
func parseID(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func urlID(r *http.Request, name string) int64 {
	return parseID(chi.URLParam(r, name))
}
