package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/example/user-gateway/internal/platform/api"
	"github.com/example/user-gateway/internal/platform/httpserver"
	"github.com/example/user-gateway/services/usergateway/internal/timestamp"
	"github.com/example/user-gateway/services/usergateway/internal/upstream"
)

// Fixed per-operation messages carried by every 500 body.
const (
	msgGetUser     = "Error retrieving user"
	msgCreateUser  = "Error creating user"
	msgUpdateUser  = "Error updating user"
	msgDeleteUser  = "Error deleting user"
	msgCheckUser   = "Error checking user registration"
	kindConversion = "conversion_failure"
)

type failureResponse struct {
	Message string         `json:"message"`
	Error   map[string]any `json:"error"`
}

// fail reports any collaborator failure as 500. Upstream 4xx, 5xx, transport
// errors and conversion errors all share this one response shape.
func (h *Users) fail(w http.ResponseWriter, r *http.Request, message, userID string, err error) {
	rid := httpserver.RequestIDFromContext(r.Context())
	h.logger().Warn(message,
		zap.String("user_id", userID),
		zap.String("request_id", rid),
		zap.String("kind", errorKind(err)),
		zap.Error(err),
	)
	detail := map[string]any{}
	if h.ExposeErrors {
		detail = describeError(err)
	}
	api.WriteJSON(w, http.StatusInternalServerError, failureResponse{Message: message, Error: detail})
}

func describeError(err error) map[string]any {
	d := map[string]any{
		"kind":    errorKind(err),
		"message": err.Error(),
	}
	var ue *upstream.Error
	if errors.As(err, &ue) {
		d["upstream"] = ue.Upstream
		d["op"] = ue.Op
		if ue.Status != 0 {
			d["status"] = ue.Status
		}
		if ue.Body != "" {
			d["body"] = ue.Body
		}
	}
	return d
}

func errorKind(err error) string {
	var ue *upstream.Error
	switch {
	case errors.As(err, &ue):
		return ue.Kind.String()
	case errors.Is(err, timestamp.ErrUnparseable):
		return kindConversion
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
