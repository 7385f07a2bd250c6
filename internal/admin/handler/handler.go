// Package handler exposes the privileged direct-registration endpoint. It
// bypasses the chat flow but runs the exact same verification and persistence
// path, returning a structured outcome instead of a chat reply.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	recmodels "aquita/internal/records/models"
	regsvc "aquita/internal/registration/service"
	"aquita/internal/transport/http/shared"
	dErrors "aquita/pkg/domain-errors"
	adminmw "aquita/pkg/platform/middleware/admin"
	"aquita/pkg/requestcontext"
)

// Registrar is the shared finalize-registration port.
type Registrar interface {
	Register(ctx context.Context, req regsvc.Request) (recmodels.IdentityRecord, error)
}

// Handler handles admin endpoints.
type Handler struct {
	registrar Registrar
	logger    *slog.Logger
	apiKey    string
}

func New(registrar Registrar, apiKey string, logger *slog.Logger) *Handler {
	return &Handler{registrar: registrar, apiKey: apiKey, logger: logger}
}

// Register mounts the admin routes behind the shared-secret guard.
func (h *Handler) Register(r chi.Router) {
	r.Route("/admin", func(ar chi.Router) {
		ar.Use(adminmw.RequireAdminToken(h.apiKey, h.logger))
		ar.Post("/register-user", h.handleRegisterUser)
	})
}

// registerUserRequest uses the product's field names; they are the public
// admin API contract.
type registerUserRequest struct {
	FirstName  string `json:"nombre"`
	LastName   string `json:"apellido"`
	NationalID string `json:"cedula"`
	Phone      string `json:"telefono"`
}

func (h *Handler) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if req.FirstName == "" || req.LastName == "" || req.NationalID == "" || req.Phone == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest,
			"nombre, apellido, cedula and telefono are required"))
		return
	}

	canonical, _, _, ok := recmodels.ParseCedula(req.NationalID)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest,
			"invalid cédula format, expected V-12345678 or E-12345678"))
		return
	}
	if !recmodels.ValidPhone(req.Phone) {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest,
			"invalid phone format, expected 04123456789"))
		return
	}

	record, err := h.registrar.Register(ctx, regsvc.Request{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		NationalID: canonical,
		Phone:      req.Phone,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "admin registration failed",
			"request_id", requestcontext.RequestID(ctx),
			"cedula", canonical,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, record)
}
