package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/content-studio/internal/apperror"
	"github.com/sakif/content-studio/internal/model"
	"github.com/sakif/content-studio/internal/service"
)

const (
	maxJSONBody   = 1 << 20  // 1 MiB
	maxUploadSize = 10 << 20 // 10 MiB
)

// ContentService is what ContentHandler needs from the service layer.
// *service.ContentService satisfies it.
type ContentService interface {
	Submit(ctx context.Context, req model.GenerationRequest) (*service.SubmitResult, error)
	GenerateImage(ctx context.Context, prompt string) (*service.SubmitResult, error)
	List(ctx context.Context, limit, offset int) ([]model.Content, error)
	ListFavorites(ctx context.Context, limit, offset int) ([]model.Content, error)
	GetByID(ctx context.Context, id string) (*model.Content, error)
	ToggleFavorite(ctx context.Context, id string) (*model.Content, error)
}

// ContentHandler serves the /api/content endpoints.
type ContentHandler struct {
	svc      ContentService
	validate *requestValidator
	logger   *slog.Logger
}

func NewContentHandler(svc ContentService, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{
		svc:      svc,
		validate: newRequestValidator(),
		logger:   logger,
	}
}

// Routes returns the /api/content sub-router.
//
//	POST  /               → HandleSubmit
//	POST  /images         → HandleGenerateImage
//	GET   /               → HandleList
//	GET   /favorites      → HandleListFavorites
//	GET   /{id}           → HandleGetByID
//	PATCH /{id}/favorite  → HandleToggleFavorite
//
// "/favorites" is registered as a static segment, so chi matches it before
// the "/{id}" wildcard.
func (h *ContentHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleSubmit)
	r.Post("/images", h.HandleGenerateImage)
	r.Get("/", h.HandleList)
	r.Get("/favorites", h.HandleListFavorites)
	r.Get("/{id}", h.HandleGetByID)
	r.Patch("/{id}/favorite", h.HandleToggleFavorite)
	return r
}

// submitContentRequest is the JSON (or multipart form) body of POST /api/content.
type submitContentRequest struct {
	Topic    string `json:"topic" validate:"max=500"`
	Type     string `json:"type" validate:"max=50"`
	Content  string `json:"content" validate:"max=100000"`
	ImageURL string `json:"imageUrl" validate:"omitempty,image_ref"`
}

// toGenerationRequest picks the variant: literal content wins over a prompt.
func (req submitContentRequest) toGenerationRequest() model.GenerationRequest {
	if req.Content != "" {
		return model.DirectContent{Topic: req.Topic, Type: req.Type, Content: req.Content, ImageURL: req.ImageURL}
	}
	return model.TopicPrompt{Topic: req.Topic, Type: req.Type, ImageURL: req.ImageURL}
}

type generateImageRequest struct {
	Prompt string `json:"prompt" validate:"required,max=500"`
}

// HandleSubmit creates content from a topic, literal content, or an uploaded file.
//
// HTTP: POST /api/content
// JSON BODY:      {"topic": "...", "type": "...", "content"?: "...", "imageUrl"?: "..."}
// MULTIPART BODY: the same fields as form values, plus an optional "file" part
//
// 201 Created for a new record, 200 OK when an identical submission within the
// duplicate window already produced one.
func (h *ContentHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var (
		genReq model.GenerationRequest
		err    error
	)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		genReq, err = h.parseMultipart(w, r)
	} else {
		genReq, err = h.parseJSON(w, r)
	}
	if err != nil {
		h.logger.Warn("invalid content submission", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	res, err := h.svc.Submit(r.Context(), genReq)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSubmitResult(w, res)
}

func (h *ContentHandler) parseJSON(w http.ResponseWriter, r *http.Request) (model.GenerationRequest, error) {
	var req submitContentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		return nil, apperror.ValidationFailed("", "invalid JSON body")
	}
	if err := h.validate.Struct(req); err != nil {
		return nil, err
	}
	return req.toGenerationRequest(), nil
}

func (h *ContentHandler) parseMultipart(w http.ResponseWriter, r *http.Request) (model.GenerationRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+maxJSONBody)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, apperror.ValidationFailed("file", "invalid or oversized multipart body")
	}

	req := submitContentRequest{
		Topic:    r.FormValue("topic"),
		Type:     r.FormValue("type"),
		Content:  r.FormValue("content"),
		ImageURL: r.FormValue("imageUrl"),
	}
	if err := h.validate.Struct(req); err != nil {
		return nil, err
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return req.toGenerationRequest(), nil
	}
	if err != nil {
		return nil, apperror.ValidationFailed("file", "could not read uploaded file")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		return nil, apperror.ValidationFailed("file", "could not read uploaded file")
	}
	if len(data) > maxUploadSize {
		return nil, apperror.ValidationFailed("file", "uploaded file is too large")
	}

	return model.FileUpload{
		Filename: header.Filename,
		Data:     data,
		Topic:    req.Topic,
		Type:     req.Type,
		ImageURL: req.ImageURL,
	}, nil
}

// HandleGenerateImage generates an image for a prompt and stores it.
//
// HTTP: POST /api/content/images
// BODY: {"prompt": "a red fox in the snow"}
func (h *ContentHandler) HandleGenerateImage(w http.ResponseWriter, r *http.Request) {
	var req generateImageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("", "invalid JSON body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.svc.GenerateImage(r.Context(), req.Prompt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSubmitResult(w, res)
}

func writeSubmitResult(w http.ResponseWriter, res *service.SubmitResult) {
	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, res.Content)
}

// HandleList returns all content newest first.
//
// HTTP: GET /api/content?limit=20&offset=40
// Both query parameters are optional; without them every record is returned.
func (h *ContentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, err)
		return
	}

	items, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// HandleListFavorites returns favorite content newest first.
//
// HTTP: GET /api/content/favorites
func (h *ContentHandler) HandleListFavorites(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, err)
		return
	}

	items, err := h.svc.ListFavorites(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// HandleGetByID returns one record.
//
// HTTP: GET /api/content/{id}
func (h *ContentHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	content, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, content)
}

// HandleToggleFavorite flips a record's favorite flag and returns the record.
//
// HTTP: PATCH /api/content/{id}/favorite
func (h *ContentHandler) HandleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	content, err := h.svc.ToggleFavorite(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, content)
}

func parsePagination(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()
	if limit, err = intParam(q.Get("limit"), "limit"); err != nil {
		return 0, 0, err
	}
	if offset, err = intParam(q.Get("offset"), "offset"); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

// intParam parses an optional non-negative integer query parameter. Empty means 0.
func intParam(raw, field string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperror.ValidationFailed(field, field+" must be a non-negative integer")
	}
	return n, nil
}
