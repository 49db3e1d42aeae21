package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/mbops/stockroom/internal/auth"
	"github.com/mbops/stockroom/internal/domain/requests"
	"github.com/mbops/stockroom/internal/metrics"
	"github.com/mbops/stockroom/internal/session"
)

type lineView struct {
	ID           int64  `json:"id"`
	ItemID       int64  `json:"item_id"`
	ItemName     string `json:"item_name"`
	Quantity     int64  `json:"quantity"`
	CurrentStock int64  `json:"current_stock"`
}

func viewOfLines(lines []requests.LineView) []lineView {
	out := make([]lineView, 0, len(lines))
	for _, ln := range lines {
		out = append(out, lineView{
			ID: ln.ID, ItemID: ln.ItemID, ItemName: ln.ItemName,
			Quantity: ln.Quantity, CurrentStock: ln.CurrentStock,
		})
	}
	return out
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	sid := h.sessionID(w, r)
	actor := auth.FromContext(r.Context())

	supplier, err := h.catalog.GetSupplier(r.Context(), urlID(r, "supplierID"))
	if err != nil {
		h.log.Error("get supplier failed", "err", err)
		h.fail(w, http.StatusInternalServerError, "internal error")
		return
	}
	if supplier == nil {
		h.fail(w, http.StatusNotFound, "supplier not found")
		return
	}
	back := fmt.Sprintf("/suppliers/%d", supplier.ID)

	list, err := h.carts.ActiveOrCreate(r.Context(), requests.Actor{
		UserID: actor.UserID,
		Name:   actor.DisplayName(),
	})
	if err != nil {
		h.log.Error("active list failed", "err", err)
		h.fail(w, http.StatusInternalServerError, "internal error")
		return
	}

	// Мусор в числах даёт 0 и валится обычной валидацией
	itemID := parseID(r.FormValue("item_id"))
	qty := parseID(r.FormValue("quantity"))

	item, err := h.catalog.GetItemForSupplier(r.Context(), itemID, supplier.ID)
	if err != nil {
		h.log.Error("get item failed", "err", err)
		h.fail(w, http.StatusInternalServerError, "internal error")
		return
	}

	_, err = h.carts.AddToCart(r.Context(), list, item, qty)
	switch {
	case err == nil:
		metrics.CartAdds.Inc()
		h.pushFlash(r, sid, session.KindSuccess,
			fmt.Sprintf("Added %d x %s to the shared list.", qty, item.Name))
		redirect(w, r, back)
	case errors.Is(err, requests.ErrUnknownItem):
		h.pushFlash(r, sid, session.KindError, "Invalid item selected.")
		redirect(w, r, back)
	case errors.Is(err, requests.ErrQuantityTooSmall):
		h.pushFlash(r, sid, session.KindError, "Quantity must be at least 1.")
		redirect(w, r, back)
	case errors.Is(err, requests.ErrExceedsStock):
		h.pushFlash(r, sid, session.KindError, "Requested quantity exceeds current stock.")
		redirect(w, r, back)
	default:
		h.log.Error("add to cart failed", "err", err)
		h.fail(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) viewCart(w http.ResponseWriter, r *http.Request) {
	sid := h.sessionID(w, r)
	msgs, err := h.flash.Pop(r.Context(), sid)
	if err != nil {
		h.log.Error("flash pop failed", "err", err)
	}
	if msgs == nil {
		msgs = []session.Message{}
	}

	list, err := h.carts.Active(r.Context())
	if err != nil {
		h.log.Error("active list failed", "err", err)
		h.fail(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := map[string]any{
		"messages":    msgs,
		"cart_items":  []lineView{},
		"total_items": int64(0),
	}
	if list != nil {
		lines, err := h.carts.Lines(r.Context(), list)
		if err != nil {
			h.log.Error("cart lines failed", "err", err)
			h.fail(w, http.StatusInternalServerError, "internal error")
			return
		}
		resp["cart_items"] = viewOfLines(lines)
		resp["total_items"] = requests.TotalQuantity(lines)
		resp["request_list"] = map[string]any{
			"id":         list.ID,
			"staff_name": list.StaffName,
			"created_at": list.CreatedAt,
		}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) updateCartLine(w http.ResponseWriter, r *http.Request) {
	sid := h.sessionID(w, r)

	list, err := h.carts.Active(r.Context())
	if err != nil {
		h.log.Error("active list failed", "err", err)
		h.fail(w, http.StatusInternalServerError, "internal error")
		return
	}
	if list == nil {
		h.pushFlash(r, sid, session.KindError, "No active cart to update.")
		redirect(w, r, "/cart")
		return
	}

	lines, err := h.carts.Lines(r.Context(), list)
	if err != nil {
		h.log.Error("cart lines failed", "err", err)
		h.fail(w, http.StatusInternalServerError, "internal error")
		return
	}
	lineID := urlID(r, "lineID")
	var current *requests.LineView
	for i := range lines {
		if lines[i].ID == lineID {
			current = &lines[i]
			break
		}
	}
	if current == nil {
		h.fail(w, http.StatusNotFound, "cart line not found")
		return
	}

	// Нечитаемое количество оставляет строку как есть
	qty := current.Quantity
	if v, err := strconv.ParseInt(r.FormValue("quantity"), 10, 64); err == nil {
		qty = v
	}

	removed, err := h.carts.UpdateLine(r.Context(), list, lineID, qty)
	if err != nil {
		h.log.Error("update line failed", "err", err)
		h.fail(w, http.StatusInternalServerError, "internal error")
		return
	}
	if removed {
		h.pushFlash(r, sid, session.KindInfo,
			fmt.Sprintf("Removed %s from the list.", current.ItemName))
	} else {
		h.pushFlash(r, sid, session.KindSuccess,
			fmt.Sprintf("Updated %s to %d.", current.ItemName, qty))
	}
	redirect(w, r, "/cart")
}

func (h *Handler) completeRequest(w http.ResponseWriter, r *http.Request) {
	sid := h.sessionID(w, r)

	list, err := h.carts.Active(r.Context())
	if err != nil {
		h.log.Error("active list failed", "err", err)
		h.fail(w, http.StatusInternalServerError, "internal error")
		return
	}

	// Снимок строк до завершения — для уведомления
	var lines []requests.LineView
	if list != nil {
		if lines, err = h.carts.Lines(r.Context(), list); err != nil {
			h.log.Error("cart lines failed", "err", err)
			h.fail(w, http.StatusInternalServerError, "internal error")
			return
		}
	}

	err = h.carts.Complete(r.Context(), list)
	var short *requests.InsufficientStockError
	switch {
	case err == nil:
		metrics.Completions.Inc()
		if h.notify != nil {
			h.notify.RequestCompleted(list, lines)
		}
		redirect(w, r, "/suppliers")
	case errors.Is(err, requests.ErrEmptyList):
		h.pushFlash(r, sid, session.KindError, "Your cart is empty.")
		redirect(w, r, "/cart")
	case errors.As(err, &short):
		metrics.InsufficientStock.Inc()
		h.pushFlash(r, sid, session.KindError,
			fmt.Sprintf("Not enough stock for %s.", short.Item))
		redirect(w, r, "/cart")
	default:
		h.log.Error("completion failed", "err", err)
		h.fail(w, http.StatusInternalServerError, "internal error")
	}
}
