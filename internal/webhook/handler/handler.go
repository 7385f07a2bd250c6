// Package handler receives inbound gateway webhooks, normalizes the payload,
// and hands canonical messages to the conversation state machine.
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aquita/pkg/requestcontext"
)

// Intake is the state machine port.
type Intake interface {
	HandleMessage(ctx context.Context, sender, text string) error
}

// Handler is the webhook endpoint.
type Handler struct {
	intake Intake
	logger *slog.Logger
}

func New(intake Intake, logger *slog.Logger) *Handler {
	return &Handler{intake: intake, logger: logger}
}

// Register mounts the webhook route.
func (h *Handler) Register(r chi.Router) {
	r.Post("/webhook", h.handleWebhook)
}

// handleWebhook always answers 200 with a bare body. The gateway re-delivers
// on any other status, which would replay the same message against mutated
// conversation state. The panic path gets its 200 from the recovery
// middleware, so every return here writes the status itself.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		h.logger.WarnContext(ctx, "webhook body read failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		writeOK(w)
		return
	}

	msg, err := Normalize(raw)
	if errors.Is(err, ErrIgnore) {
		writeOK(w)
		return
	}
	if err != nil {
		h.logger.WarnContext(ctx, "webhook payload not understood",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		writeOK(w)
		return
	}

	if err := h.intake.HandleMessage(ctx, msg.Sender, msg.Text); err != nil {
		// Logged, not surfaced: the user gets nothing rather than a redelivery loop.
		h.logger.ErrorContext(ctx, "message handling failed",
			"request_id", requestcontext.RequestID(ctx),
			"sender", msg.Sender,
			"error", err.Error(),
		)
	}
	writeOK(w)
}

func writeOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
