// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the document store
//
// The service never sees HTTP types and never sees SQL or BSON. It talks to
// three collaborators through interfaces: the repository, the duplicate index
// and the content provider. main.go (via server.New) decides which concrete
// implementations get plugged in; tests plug in in-memory fakes.
//
// THE WRITE PATH:
// Every submission goes through the same three steps:
//
//  1. resolve  → turn the request into a draft record (may call the provider)
//  2. dedup    → has an identical record been created within the window?
//  3. insert   → if not, store it and remember its fingerprint
//
// Step 2 answers from the fingerprint index first. If the index is down we
// fall back to asking the store directly, so a Redis outage degrades latency,
// not correctness.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sakif/content-studio/internal/apperror"
	"github.com/sakif/content-studio/internal/dedup"
	"github.com/sakif/content-studio/internal/metrics"
	"github.com/sakif/content-studio/internal/model"
	"github.com/sakif/content-studio/internal/provider"
	"github.com/sakif/content-studio/internal/repository"
)

const (
	MaxTopicLength = 500
	MaxListLimit   = 100
)

// Submission kinds, used as a metrics label.
const (
	kindText  = "text"
	kindImage = "image"
)

// Generator is the part of the provider the write path needs.
type Generator interface {
	provider.TextGenerator
	provider.ImageGenerator
}

// Recorder receives domain events for metrics. *metrics.Metrics satisfies it.
type Recorder interface {
	Submission(kind, outcome string)
	ProviderError(kind string)
	DedupFallback()
}

type nopRecorder struct{}

func (nopRecorder) Submission(string, string) {}
func (nopRecorder) ProviderError(string)      {}
func (nopRecorder) DedupFallback()            {}

// SubmitResult is what the write path produced. Duplicate is true when an
// existing record was returned instead of a new one being created.
type SubmitResult struct {
	Content   *model.Content
	Duplicate bool
}

// ContentService owns the write path and the read path for content records.
type ContentService struct {
	repo     repository.ContentRepository
	index    dedup.Index
	gen      Generator
	logger   *slog.Logger
	recorder Recorder
	window   time.Duration
	now      func() time.Time
}

// Option configures a ContentService.
type Option func(*ContentService)

// WithWindow sets the duplicate window. Non-positive values are ignored.
func WithWindow(d time.Duration) Option {
	return func(s *ContentService) {
		if d > 0 {
			s.window = d
		}
	}
}

// WithClock replaces time.Now. Tests use it to step through the window.
func WithClock(now func() time.Time) Option {
	return func(s *ContentService) { s.now = now }
}

func WithRecorder(r Recorder) Option {
	return func(s *ContentService) { s.recorder = r }
}

// NewContentService wires the service. index may be nil, in which case every
// duplicate check goes straight to the store.
func NewContentService(repo repository.ContentRepository, index dedup.Index, gen Generator, logger *slog.Logger, opts ...Option) *ContentService {
	s := &ContentService{
		repo:     repo,
		index:    index,
		gen:      gen,
		logger:   logger,
		recorder: nopRecorder{},
		window:   dedup.DefaultWindow,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit resolves the request's content, then returns either an existing
// identical record created within the window or a newly inserted one.
func (s *ContentService) Submit(ctx context.Context, req model.GenerationRequest) (*SubmitResult, error) {
	draft, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	filter := repository.DuplicateFilter{
		Topic:    draft.Topic,
		Type:     draft.Type,
		Content:  &draft.Content,
		ImageURL: &draft.ImageURL,
	}
	return s.createUnlessDuplicate(ctx, kindText, draft, contentKey(draft), filter)
}

// GenerateImage asks the provider for one image and stores it as an "image"
// record. The provider is called exactly once per request; the duplicate key
// is (prompt, "image", image data).
func (s *ContentService) GenerateImage(ctx context.Context, prompt string) (*SubmitResult, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, apperror.ValidationFailed("prompt", "image prompt is required")
	}
	if utf8.RuneCountInString(prompt) > MaxTopicLength {
		return nil, apperror.ValidationFailed("prompt",
			fmt.Sprintf("image prompt must be %d characters or less", MaxTopicLength))
	}

	img, err := s.gen.GenerateImage(ctx, prompt)
	if err != nil {
		return nil, s.providerFailure("generating image", err)
	}

	draft := &model.Content{
		Topic:    prompt,
		Type:     model.TypeImage,
		Content:  img.Description,
		ImageURL: img.Data,
	}
	filter := repository.DuplicateFilter{Topic: prompt, Type: model.TypeImage, ImageURL: &img.Data}

	return s.createUnlessDuplicate(ctx, kindImage, draft, imageKey(draft), filter)
}

// contentKey identifies a record by every field Submit compares.
func contentKey(c *model.Content) dedup.Key {
	return dedup.Key{Topic: c.Topic, Type: c.Type, Content: c.Content, ImageURL: c.ImageURL}
}

// imageKey identifies an image record by prompt and image data only, matching
// the store filter GenerateImage uses.
func imageKey(c *model.Content) dedup.Key {
	return dedup.Key{Topic: c.Topic, Type: model.TypeImage, ImageURL: c.ImageURL}
}

// rememberKeys lists every key a later lookup could use for c. An image record
// is reachable from both write paths, so it is stored under both keys.
func rememberKeys(c *model.Content) []dedup.Key {
	keys := []dedup.Key{contentKey(c)}
	if c.Type == model.TypeImage && c.ImageURL != "" {
		keys = append(keys, imageKey(c))
	}
	return keys
}

// resolve validates the request and produces the draft record, calling the
// provider when the request asks for generated content.
func (s *ContentService) resolve(ctx context.Context, req model.GenerationRequest) (*model.Content, error) {
	switch r := req.(type) {
	case model.FileUpload:
		return s.resolveUpload(ctx, r)

	case model.DirectContent:
		topic, typ, err := requireTopicAndType(r.Topic, r.Type)
		if err != nil {
			return nil, err
		}
		if r.Content == "" {
			return nil, apperror.ValidationFailed("content", "content is required")
		}
		return &model.Content{
			Topic:    topic,
			Type:     typ,
			Content:  r.Content,
			ImageURL: strings.TrimSpace(r.ImageURL),
		}, nil

	case model.TopicPrompt:
		topic, typ, err := requireTopicAndType(r.Topic, r.Type)
		if err != nil {
			return nil, err
		}
		text, err := s.gen.GenerateText(ctx, topic, typ)
		if err != nil {
			return nil, s.providerFailure("generating content", err)
		}
		return &model.Content{
			Topic:    topic,
			Type:     typ,
			Content:  text,
			ImageURL: strings.TrimSpace(r.ImageURL),
		}, nil

	default:
		return nil, apperror.ValidationFailed("topic", "topic and type or file are required")
	}
}

func (s *ContentService) resolveUpload(ctx context.Context, r model.FileUpload) (*model.Content, error) {
	if len(r.Data) == 0 {
		return nil, apperror.ValidationFailed("file", "uploaded file is empty")
	}
	if !utf8.Valid(r.Data) {
		return nil, apperror.ValidationFailed("file", "uploaded file must be UTF-8 text")
	}

	topic := strings.TrimSpace(r.Topic)
	if topic == "" {
		topic = r.Filename
	}
	typ := strings.TrimSpace(r.Type)
	if typ == "" {
		typ = model.TypeFile
	}

	text, err := s.gen.GenerateFromFile(ctx, string(r.Data), typ)
	if err != nil {
		return nil, s.providerFailure("generating content from file", err)
	}

	return &model.Content{
		Topic:    topic,
		Type:     typ,
		Content:  text,
		ImageURL: strings.TrimSpace(r.ImageURL),
	}, nil
}

func requireTopicAndType(topic, typ string) (string, string, error) {
	topic = strings.TrimSpace(topic)
	typ = strings.TrimSpace(typ)
	if topic == "" {
		return "", "", apperror.ValidationFailed("topic", "topic and type or file are required")
	}
	if typ == "" {
		return "", "", apperror.ValidationFailed("type", "topic and type or file are required")
	}
	if utf8.RuneCountInString(topic) > MaxTopicLength {
		return "", "", apperror.ValidationFailed("topic",
			fmt.Sprintf("topic must be %d characters or less", MaxTopicLength))
	}
	return topic, typ, nil
}

func (s *ContentService) createUnlessDuplicate(ctx context.Context, kind string, draft *model.Content, key dedup.Key, filter repository.DuplicateFilter) (*SubmitResult, error) {
	now := s.now().UTC()
	fingerprint := key.Fingerprint()

	existing, err := s.findDuplicate(ctx, fingerprint, filter, now)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.logger.Info("duplicate submission, returning existing record",
			slog.String("id", existing.ID),
			slog.String("kind", kind),
		)
		s.recorder.Submission(kind, metrics.OutcomeDuplicate)
		return &SubmitResult{Content: existing, Duplicate: true}, nil
	}

	draft.IsFavorite = false
	draft.CreatedAt = now
	if err := s.repo.Create(ctx, draft); err != nil {
		s.logger.Error("failed to create content",
			slog.String("topic", draft.Topic),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating content: %w", err)
	}

	if s.index != nil {
		for _, k := range rememberKeys(draft) {
			if err := s.index.Remember(ctx, k.Fingerprint(), draft.ID, s.window); err != nil {
				// The record exists; only duplicate detection for it degrades.
				s.logger.Warn("failed to remember fingerprint",
					slog.String("id", draft.ID),
					slog.String("error", err.Error()),
				)
				break
			}
		}
	}

	s.logger.Info("content created",
		slog.String("id", draft.ID),
		slog.String("kind", kind),
		slog.String("type", draft.Type),
	)
	s.recorder.Submission(kind, metrics.OutcomeCreated)
	return &SubmitResult{Content: draft}, nil
}

// findDuplicate returns the record an identical submission created within the
// window, or nil.
func (s *ContentService) findDuplicate(ctx context.Context, fingerprint string, filter repository.DuplicateFilter, now time.Time) (*model.Content, error) {
	cutoff := now.Add(-s.window)

	if s.index != nil {
		id, ok, err := s.index.Lookup(ctx, fingerprint)
		if err == nil {
			if !ok {
				return nil, nil
			}
			return s.loadRecent(ctx, id, cutoff)
		}
		s.logger.Warn("duplicate index unavailable, scanning store",
			slog.String("error", err.Error()),
		)
		s.recorder.DedupFallback()
	}

	filter.CreatedAfter = cutoff
	existing, err := s.repo.FindOne(ctx, filter)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("checking for duplicates: %w", err)
	}
	return existing, nil
}

// loadRecent fetches the record an index entry points at. An entry whose
// record has vanished, or has aged out of the window, is not a duplicate.
func (s *ContentService) loadRecent(ctx context.Context, id string, cutoff time.Time) (*model.Content, error) {
	existing, err := s.repo.GetByID(ctx, id)
	switch {
	case errors.Is(err, apperror.ErrNotFound), errors.Is(err, apperror.ErrInvalidID):
		s.logger.Warn("duplicate index points at a missing record", slog.String("id", id))
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("loading duplicate candidate: %w", err)
	case !existing.CreatedAt.After(cutoff):
		return nil, nil
	}
	return existing, nil
}

// providerFailure classifies a provider error into an application error.
func (s *ContentService) providerFailure(action string, err error) error {
	kind, appErr := classifyProviderError(action, err)
	s.recorder.ProviderError(kind)
	s.logger.Error("provider call failed",
		slog.String("action", action),
		slog.String("kind", kind),
		slog.String("error", err.Error()),
	)
	return appErr
}

// ===== READ PATH =====

// List returns all records newest first. limit 0 means everything.
func (s *ContentService) List(ctx context.Context, limit, offset int) ([]model.Content, error) {
	return s.list(ctx, repository.ListOptions{Limit: limit, Offset: offset})
}

// ListFavorites returns favorite records newest first.
func (s *ContentService) ListFavorites(ctx context.Context, limit, offset int) ([]model.Content, error) {
	return s.list(ctx, repository.ListOptions{FavoritesOnly: true, Limit: limit, Offset: offset})
}

func (s *ContentService) list(ctx context.Context, opts repository.ListOptions) ([]model.Content, error) {
	if opts.Limit < 0 {
		opts.Limit = 0
	}
	if opts.Limit > MaxListLimit {
		opts.Limit = MaxListLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	items, err := s.repo.List(ctx, opts)
	if err != nil {
		s.logger.Error("failed to list content",
			slog.Bool("favorites", opts.FavoritesOnly),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing content: %w", err)
	}
	return items, nil
}

// GetByID returns apperror.ErrNotFound or apperror.ErrInvalidID from the store unchanged.
func (s *ContentService) GetByID(ctx context.Context, id string) (*model.Content, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "content ID is required")
	}
	return s.repo.GetByID(ctx, id)
}

// ToggleFavorite flips IsFavorite using fetch-then-save and returns the
// updated record.
func (s *ContentService) ToggleFavorite(ctx context.Context, id string) (*model.Content, error) {
	content, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	content.IsFavorite = !content.IsFavorite
	if err := s.repo.Save(ctx, content); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to save favorite",
			slog.String("id", content.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("saving content: %w", err)
	}

	s.logger.Info("favorite toggled",
		slog.String("id", content.ID),
		slog.Bool("isFavorite", content.IsFavorite),
	)
	return content, nil
}
