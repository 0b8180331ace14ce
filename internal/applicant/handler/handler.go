package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ktp/internal/applicant/models"
	dErrors "ktp/pkg/domain-errors"
	"ktp/pkg/platform/httputil"
	"ktp/pkg/requestcontext"
)

// Service defines the applicant operations exposed over HTTP.
type Service interface {
	Submit(ctx context.Context, in models.SubmitInput) (*models.ApplicantRecord, error)
	Edit(ctx context.Context, id string, fields models.Fields) (*models.ApplicantRecord, error)
	Verify(ctx context.Context) (*models.ApplicantRecord, error)
	Undo(ctx context.Context, id string) (*models.ApplicantRecord, error)
	Get(ctx context.Context, id string) (*models.ApplicantRecord, error)
	List(ctx context.Context, key models.SortKey) []models.ApplicantRecord
	Queue(ctx context.Context) []models.ApplicantRecord
}

// Handler handles applicant and verification endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// New creates a new applicant Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// Register registers the applicant routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/applications", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleSubmit)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleEdit)
		r.Post("/{id}/undo", h.handleUndo)
	})
	r.Route("/verifications", func(r chi.Router) {
		r.Get("/", h.handleQueue)
		r.Post("/", h.handleVerify)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	key, err := models.ParseSortKey(r.URL.Query().Get("sort"))
	if err != nil {
		h.logger.WarnContext(ctx, "invalid sort key",
			"request_id", requestID,
			"sort", r.URL.Query().Get("sort"),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toListResponse(h.service.List(ctx, key)))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	record, err := h.service.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(ctx, w, "get", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(*record))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.service.Submit(ctx, req.toInput())
	if err != nil {
		h.writeServiceError(ctx, w, "submit", err)
		return
	}

	h.logger.InfoContext(ctx, "application submitted",
		"request_id", requestID,
		"applicant_id", record.ID,
		"region", record.Region,
	)
	w.Header().Set("Location", "/applications/"+record.ID)
	httputil.WriteJSON(w, http.StatusCreated, toResponse(*record))
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[EditRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.service.Edit(ctx, chi.URLParam(r, "id"), req.toFields())
	if err != nil {
		h.writeServiceError(ctx, w, "edit", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(*record))
}

func (h *Handler) handleUndo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	record, err := h.service.Undo(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(ctx, w, "undo", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(*record))
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	record, err := h.service.Verify(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, "verify", err)
		return
	}
	h.logger.InfoContext(ctx, "application verified",
		"request_id", requestcontext.RequestID(ctx),
		"applicant_id", record.ID,
	)
	httputil.WriteJSON(w, http.StatusOK, toResponse(*record))
}

func (h *Handler) handleQueue(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, toListResponse(h.service.Queue(r.Context())))
}

// writeServiceError logs expected outcomes at warn and anything else at error.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	requestID := requestcontext.RequestID(ctx)
	if de, ok := dErrors.As(err); ok && de.Code != dErrors.CodeInternal && de.Code != dErrors.CodePersistence {
		h.logger.WarnContext(ctx, operation+" rejected",
			"request_id", requestID,
			"code", string(de.Code),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.ErrorContext(ctx, operation+" failed",
		"request_id", requestID,
		"error", err.Error(),
	)
	httputil.WriteError(w, err)
}
