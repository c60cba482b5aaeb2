package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/sakif/content-studio/internal/apperror"
	"github.com/sakif/content-studio/internal/model"
	"github.com/sakif/content-studio/internal/provider"
)

type mockSearcher struct {
	calls       int
	lastQuery   string
	lastPerPage int
	err         error
}

func (m *mockSearcher) SearchStockImages(_ context.Context, category string, perPage int) ([]model.StockImage, error) {
	m.calls++
	m.lastQuery, m.lastPerPage = category, perPage
	if m.err != nil {
		return nil, m.err
	}
	return nil, nil
}

func newTestStockService(t *testing.T) (*StockService, *mockSearcher) {
	t.Helper()
	searcher := &mockSearcher{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewStockService(searcher, logger, nil), searcher
}

func TestStockSearch_PerPage(t *testing.T) {
	tests := []struct {
		name    string
		perPage int
		want    int
	}{
		{"absent uses default", 0, DefaultStockPerPage},
		{"negative clamps to one", -4, 1},
		{"in range is kept", 12, 12},
		{"too large clamps to max", 500, MaxStockPerPage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, searcher := newTestStockService(t)

			images, err := svc.Search(context.Background(), " nature ", tt.perPage)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if images == nil {
				t.Error("expected a non-nil slice")
			}
			if searcher.lastPerPage != tt.want {
				t.Errorf("perPage = %d, want %d", searcher.lastPerPage, tt.want)
			}
			if searcher.lastQuery != "nature" {
				t.Errorf("category = %q, want trimmed", searcher.lastQuery)
			}
		})
	}
}

func TestStockSearch_CategoryRequired(t *testing.T) {
	svc, searcher := newTestStockService(t)

	_, err := svc.Search(context.Background(), "", 5)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("error = %v, want validation error", err)
	}
	if searcher.calls != 0 {
		t.Error("searcher must not be called without a category")
	}
}

func TestStockSearch_ProviderErrors(t *testing.T) {
	svc, searcher := newTestStockService(t)

	searcher.err = provider.ErrQuotaExceeded
	_, err := svc.Search(context.Background(), "nature", 5)
	if !errors.Is(err, apperror.ErrQuotaExceeded) {
		t.Errorf("error = %v, want quota exceeded", err)
	}

	searcher.err = errors.New("dial tcp: timeout")
	_, err = svc.Search(context.Background(), "nature", 5)
	if !errors.Is(err, apperror.ErrInternal) {
		t.Errorf("error = %v, want internal", err)
	}
}
