package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/content-studio/internal/apperror"
	"github.com/sakif/content-studio/internal/model"
	"github.com/sakif/content-studio/internal/provider"
)

const (
	DefaultStockPerPage = 5
	MaxStockPerPage     = 80
)

// StockService searches stock photos. Nothing is persisted; the client saves
// a picked photo through the regular write path.
type StockService struct {
	searcher provider.StockSearcher
	logger   *slog.Logger
	recorder Recorder
}

func NewStockService(searcher provider.StockSearcher, logger *slog.Logger, recorder Recorder) *StockService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &StockService{searcher: searcher, logger: logger, recorder: recorder}
}

// Search returns up to perPage photos for category. perPage 0 means the
// default; anything else is clamped to [1, MaxStockPerPage].
func (s *StockService) Search(ctx context.Context, category string, perPage int) ([]model.StockImage, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, apperror.ValidationFailed("category", "category is required")
	}

	switch {
	case perPage == 0:
		perPage = DefaultStockPerPage
	case perPage < 1:
		perPage = 1
	case perPage > MaxStockPerPage:
		perPage = MaxStockPerPage
	}

	images, err := s.searcher.SearchStockImages(ctx, category, perPage)
	if err != nil {
		kind, appErr := classifyProviderError("searching stock images", err)
		s.recorder.ProviderError(kind)
		s.logger.Error("stock image search failed",
			slog.String("category", category),
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
		return nil, appErr
	}

	if images == nil {
		images = []model.StockImage{}
	}
	return images, nil
}
