package web

import (
	"net/http"

	"github.com/xuri/excelize/v2"

	"github.com/mbops/stockroom/internal/auth"
)

// exportStock выгружает текущие остатки по всем поставщикам в xlsx.
func (h *Handler) exportStock(w http.ResponseWriter, r *http.Request) {
	if !auth.FromContext(r.Context()).Privileged() {
		h.fail(w, http.StatusForbidden, "admin access required")
		return
	}

	rows, err := h.catalog.StockRows(r.Context())
	if err != nil {
		h.log.Error("stock rows failed", "err", err)
		h.fail(w, http.StatusInternalServerError, "internal error")
		return
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)

	headers := []string{"Supplier", "Item", "Category", "Current stock"}
	for i, hd := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, hd)
	}
	for i, row := range rows {
		values := []any{row.Supplier, row.Item, string(row.Category), row.CurrentStock}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="stock.xlsx"`)
	if err := f.Write(w); err != nil {
		h.log.Error("xlsx write failed", "err", err)
	}
}
