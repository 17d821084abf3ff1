// Package handler exposes the citizen registry over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"census/internal/citizens/models"
	"census/internal/platform/middleware"
	dErrors "census/pkg/domain-errors"
	"census/pkg/platform/httputil"
)

// Service defines the registry operations the HTTP layer needs.
type Service interface {
	CreateImport(ctx context.Context, citizens []models.Citizen) (int64, error)
	ListCitizens(ctx context.Context, importID int64) ([]models.Citizen, error)
	PatchCitizen(ctx context.Context, importID, citizenID int64, patch models.CitizenPatch) (*models.Citizen, error)
	GetBirthdays(ctx context.Context, importID int64) (models.GiftReport, error)
}

// Handler handles the citizen registry endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a new registry Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the registry routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/imports", h.handleCreateImport)
	r.Get("/imports/{importID}/citizens", h.handleListCitizens)
	r.Patch("/imports/{importID}/citizens/{citizenID}", h.handlePatchCitizen)
	r.Get("/imports/{importID}/citizens/birthdays", h.handleGetBirthdays)
}

// dataResponse is the envelope every successful response uses.
type dataResponse struct {
	Data any `json:"data"`
}

type createImportRequest struct {
	Citizens []models.Citizen `json:"citizens"`
}

type createImportResponse struct {
	ImportID int64 `json:"import_id"`
}

func (h *Handler) handleCreateImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid import payload",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	importID, err := h.service.CreateImport(ctx, req.Citizens)
	if err != nil {
		h.writeServiceError(ctx, w, "create import", err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, dataResponse{Data: createImportResponse{ImportID: importID}})
}

func (h *Handler) handleListCitizens(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	importID, err := pathID(r, "importID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	citizens, err := h.service.ListCitizens(ctx, importID)
	if err != nil {
		h.writeServiceError(ctx, w, "list citizens", err)
		return
	}

	// 201 for a read is unusual but clients depend on it.
	httputil.WriteJSON(w, http.StatusCreated, dataResponse{Data: citizens})
}

func (h *Handler) handlePatchCitizen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	importID, err := pathID(r, "importID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	citizenID, err := pathID(r, "citizenID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var patch models.CitizenPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.logger.WarnContext(ctx, "invalid patch payload",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	updated, err := h.service.PatchCitizen(ctx, importID, citizenID, patch)
	if err != nil {
		h.writeServiceError(ctx, w, "patch citizen", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, dataResponse{Data: updated})
}

func (h *Handler) handleGetBirthdays(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	importID, err := pathID(r, "importID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	report, err := h.service.GetBirthdays(ctx, importID)
	if err != nil {
		h.writeServiceError(ctx, w, "get birthdays", err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, dataResponse{Data: report})
}

// writeServiceError logs at a level matched to the error class and writes the
// mapped response.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	attrs := []any{
		"request_id", middleware.GetRequestID(ctx),
		"error", err.Error(),
	}
	switch dErrors.CodeOf(err) {
	case dErrors.CodeBadRequest, dErrors.CodeNotFound:
		h.logger.WarnContext(ctx, "rejected "+op, attrs...)
	default:
		h.logger.ErrorContext(ctx, "failed to "+op, attrs...)
	}
	httputil.WriteError(w, err)
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, name+" must be a non-negative integer")
	}
	return id, nil
}
