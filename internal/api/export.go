package api

import (
	"bytes"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/zaloga/internal/export"
)

// ExportHandler serves the inventory workbook.
type ExportHandler struct {
	DB *sql.DB
}

// Inventory handles GET /api/export/inventory.xlsx.
func (h *ExportHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := export.WriteInventory(r.Context(), h.DB, &buf); err != nil {
		slog.Error("failed to export inventory", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to export inventory")
		return
	}

	name := fmt.Sprintf("zaloga-inventory-%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
