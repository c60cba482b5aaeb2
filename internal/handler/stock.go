package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/content-studio/internal/apperror"
	"github.com/sakif/content-studio/internal/model"
)

// StockSearcher is what StockHandler needs from the service layer.
type StockSearcher interface {
	Search(ctx context.Context, category string, perPage int) ([]model.StockImage, error)
}

// StockHandler serves stock photo search.
type StockHandler struct {
	svc      StockSearcher
	validate *requestValidator
	logger   *slog.Logger
}

func NewStockHandler(svc StockSearcher, logger *slog.Logger) *StockHandler {
	return &StockHandler{svc: svc, validate: newRequestValidator(), logger: logger}
}

type stockQuery struct {
	Category string `json:"category" validate:"required,max=100"`
}

// HandleSearch searches stock photos by category.
//
// HTTP: GET /api/stock-images?category=nature&perPage=10
// perPage is optional (default 5) and clamped to 1..80 by the service.
func (h *StockHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := stockQuery{Category: r.URL.Query().Get("category")}
	if err := h.validate.Struct(q); err != nil {
		writeError(w, err)
		return
	}

	perPage := 0
	if raw := r.URL.Query().Get("perPage"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, apperror.ValidationFailed("perPage", "perPage must be an integer"))
			return
		}
		perPage = n
	}

	images, err := h.svc.Search(r.Context(), q.Category, perPage)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, images)
}
