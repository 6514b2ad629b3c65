package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Mojahedhu/Mojahed-Store/internal/domain"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusOf(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation, domain.KindAmountMismatch, domain.KindInvalidPayload:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a core error to its HTTP rendering. Client-caused kinds
// surface their message; gateway and internal failures render a generic
// message and log the full detail server-side.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	status := statusOf(kind)

	message := "internal server error"
	switch kind {
	case domain.KindValidation, domain.KindNotFound, domain.KindUnauthorized,
		domain.KindForbidden, domain.KindAmountMismatch, domain.KindInvalidPayload:
		var de *domain.Error
		if errors.As(err, &de) {
			message = de.Message
		}
	case domain.KindGateway:
		message = "payment provider error"
	}

	if status >= http.StatusInternalServerError || kind == domain.KindGateway {
		slog.ErrorContext(ctx, "request failed", "error", err, "status", status)
	}

	code := string(kind)
	if code == "" {
		code = "internal"
	}
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}
