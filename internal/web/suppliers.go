package web

import (
	"fmt"
	"net/http"

	"github.com/mbops/stockroom/internal/auth"
	"github.com/mbops/stockroom/internal/domain/catalog"
	"github.com/mbops/stockroom/internal/session"
)

type supplierView struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	EnforcesCategories bool   `json:"enforces_categories"`
}

type itemView struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	CurrentStock int64  `json:"current_stock"`
	Category     string `json:"category,omitempty"`
}

func viewOfItems(items []catalog.Item) []itemView {
	out := make([]itemView, 0, len(items))
	for _, it := range items {
		out = append(out, itemView{
			ID: it.ID, Name: it.Name,
			CurrentStock: it.CurrentStock, Category: string(it.Category),
		})
	}
	return out
}

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.catalog.ListSuppliers(r.Context())
	if err != nil {
		h.log.Error("list suppliers failed", "err", err)
		h.fail(w, http.StatusInternalServerError, "internal error")
		return
	}
	views := make([]supplierView, 0, len(suppliers))
	for _, s := range suppliers {
		views = append(views, supplierView{ID: s.ID, Name: s.Name, EnforcesCategories: s.EnforcesCategories})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"suppliers":     views,
		"staff_display": auth.FromContext(r.Context()).DisplayName(),
	})
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
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
	items, err := h.catalog.ListItems(r.Context(), supplier.ID)
	if err != nil {
		h.log.Error("list items failed", "err", err)
		h.fail(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := map[string]any{
		"supplier": supplierView{ID: supplier.ID, Name: supplier.Name, EnforcesCategories: supplier.EnforcesCategories},
		"items":    viewOfItems(items),
	}
	if supplier.EnforcesCategories {
		groups := catalog.GroupByCategory(items)
		resp["item_groups"] = map[string][]itemView{
			"Ingredients": viewOfItems(groups[catalog.CategoryIngredient]),
			"Packaging":   viewOfItems(groups[catalog.CategoryPackaging]),
		}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	if !auth.FromContext(r.Context()).Privileged() {
		h.fail(w, http.StatusForbidden, "admin access required")
		return
	}
	name := r.FormValue("name")
	if name == "" {
		h.fail(w, http.StatusBadRequest, "supplier name is required")
		return
	}
	enforces := r.FormValue("enforces_categories") == "true"
	if _, err := h.catalog.CreateSupplier(r.Context(), name, enforces); err != nil {
		h.log.Error("create supplier failed", "err", err)
		h.fail(w, http.StatusInternalServerError, "internal error")
		return
	}
	redirect(w, r, "/suppliers")
}

// deleteSupplier убирает поставщика; позиции уходят каскадом.
func (h *Handler) deleteSupplier(w http.ResponseWriter, r *http.Request) {
	if !auth.FromContext(r.Context()).Privileged() {
		h.fail(w, http.StatusForbidden, "admin access required")
		return
	}
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
	if err := h.catalog.DeleteSupplier(r.Context(), supplier.ID); err != nil {
		h.log.Error("delete supplier failed", "err", err)
		h.fail(w, http.StatusInternalServerError, "internal error")
		return
	}
	redirect(w, r, "/suppliers")
}

// createItem заводит новую позицию у поставщика. Доступно только
// привилегированным сотрудникам.
func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	sid := h.sessionID(w, r)
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

	if !auth.FromContext(r.Context()).Privileged() {
		h.pushFlash(r, sid, session.KindError, "Only staff users can add inventory items.")
		redirect(w, r, back)
		return
	}

	name := r.FormValue("new_item_name")
	stockValue := r.FormValue("new_item_stock")
	if stockValue == "" {
		stockValue = "0"
	}
	stock := catalog.ParseStock(stockValue)
	category := catalog.Category(r.FormValue("new_item_category"))

	switch err := catalog.ValidateNewItem(name, stock, category, supplier); err {
	case nil:
	case catalog.ErrNameRequired:
		h.pushFlash(r, sid, session.KindError, "Item name is required.")
		redirect(w, r, back)
		return
	case catalog.ErrNegativeStock:
		h.pushFlash(r, sid, session.KindError, "Stock must be zero or greater.")
		redirect(w, r, back)
		return
	case catalog.ErrBadCategory:
		h.pushFlash(r, sid, session.KindError, "Please pick a valid category.")
		redirect(w, r, back)
		return
	default:
		h.fail(w, http.StatusInternalServerError, "internal error")
		return
	}

	item, err := h.catalog.CreateItem(r.Context(), supplier.ID, name, stock, category)
	if err != nil {
		h.log.Error("create item failed", "err", err)
		h.fail(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.pushFlash(r, sid, session.KindSuccess,
		fmt.Sprintf("Added new item '%s' with stock %d.", item.Name, item.CurrentStock))
	redirect(w, r, back)
}
