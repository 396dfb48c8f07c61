// Package handlers implements the user routes: each handler makes its upstream
// calls, reshapes dates and writes one JSON response.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/user-gateway/internal/platform/api"
	"github.com/example/user-gateway/internal/platform/events"
	"github.com/example/user-gateway/internal/platform/httpserver"
	"github.com/example/user-gateway/services/usergateway/internal/timestamp"
	"github.com/example/user-gateway/services/usergateway/internal/upstream"
)

// UserService is the user upstream as the handlers see it.
type UserService interface {
	GetByID(ctx context.Context, id string) (upstream.Record, error)
	Create(ctx context.Context, data upstream.Record) (json.RawMessage, error)
	Update(ctx context.Context, id string, data upstream.Record) (json.RawMessage, error)
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (json.RawMessage, error)
}

// StoreService is the store upstream as the handlers see it.
type StoreService interface {
	GetByUserID(ctx context.Context, userID string) (json.RawMessage, error)
}

// EventPublisher receives user lifecycle events after successful writes.
type EventPublisher interface {
	Publish(subject, eventName, userID, requestID string, props map[string]any)
}

// Users holds the collaborators shared by the user handlers. It is built once
// at boot and never mutated afterwards.
type Users struct {
	Users  UserService
	Stores StoreService
	Events EventPublisher
	Log    *zap.Logger

	// Keys selects the field names of date pairs sent upstream.
	Keys timestamp.Keys
	// ExposeErrors puts error details in the 500 body; otherwise "error" is {}.
	ExposeErrors bool
	// Now defaults to time.Now.
	Now func() time.Time
}

func (h *Users) logger() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

func (h *Users) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

func (h *Users) publish(subject, name, userID, rid string, props map[string]any) {
	if h.Events == nil || userID == "" {
		return
	}
	h.Events.Publish(subject, name, userID, rid, props)
}

// GetUser handles GET /users/{id}. The user and their store are fetched in
// parallel; either failure fails the request.
func (h *Users) GetUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := pathID(w, r, rid)
		if !ok {
			return
		}
		user, err := h.userWithStore(r.Context(), id)
		if err != nil {
			h.fail(w, r, msgGetUser, id, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, user)
	}
}

func (h *Users) userWithStore(ctx context.Context, id string) (upstream.Record, error) {
	var (
		user  upstream.Record
		store json.RawMessage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = h.Users.GetByID(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		store, err = h.Stores.GetByUserID(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if user == nil {
		user = upstream.Record{}
	}
	if store == nil {
		store = json.RawMessage("null")
	}
	user["store"] = store
	user["registrationDate"] = timestamp.ToDisplay(user["registrationDate"])
	user["birthDate"] = timestamp.ToDisplay(user["birthDate"])
	return user, nil
}

// CreateUser handles POST /users. registrationDate is always the current
// time; a caller-supplied value is discarded.
func (h *Users) CreateUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		data, ok := decodeRecord(w, r, rid)
		if !ok {
			return
		}
		if err := h.convertDate(data, "birthDate"); err != nil {
			h.fail(w, r, msgCreateUser, "", err)
			return
		}
		reg, err := timestamp.FromTime(h.now())
		if err != nil {
			h.fail(w, r, msgCreateUser, "", fmt.Errorf("registrationDate: %w", err))
			return
		}
		data["registrationDate"] = h.Keys.Encode(reg)

		out, err := h.Users.Create(r.Context(), data)
		if err != nil {
			h.fail(w, r, msgCreateUser, "", err)
			return
		}
		api.WriteRawJSON(w, http.StatusCreated, out)
		h.publish(events.SubjectUserCreated, "user_created", recordID(out), rid, nil)
	}
}

// UpdateUser handles PUT /users/{id}. Both dates are converted when supplied.
func (h *Users) UpdateUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := pathID(w, r, rid)
		if !ok {
			return
		}
		data, ok := decodeRecord(w, r, rid)
		if !ok {
			return
		}
		for _, field := range []string{"birthDate", "registrationDate"} {
			if err := h.convertDate(data, field); err != nil {
				h.fail(w, r, msgUpdateUser, id, err)
				return
			}
		}

		out, err := h.Users.Update(r.Context(), id, data)
		if err != nil {
			h.fail(w, r, msgUpdateUser, id, err)
			return
		}
		api.WriteRawJSON(w, http.StatusOK, out)
		h.publish(events.SubjectUserUpdated, "user_updated", id, rid, map[string]any{"fields": len(data)})
	}
}

// DeleteUser handles DELETE /users/{id}.
func (h *Users) DeleteUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := pathID(w, r, rid)
		if !ok {
			return
		}
		if err := h.Users.Delete(r.Context(), id); err != nil {
			h.fail(w, r, msgDeleteUser, id, err)
			return
		}
		api.NoContent(w)
		h.publish(events.SubjectUserDeleted, "user_deleted", id, rid, nil)
	}
}

type registrationResponse struct {
	Registered json.RawMessage `json:"registered"`
}

// CheckRegistration handles GET /users/check/{id}. The upstream answer is
// passed through as-is under "registered".
func (h *Users) CheckRegistration() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		id, ok := pathID(w, r, rid)
		if !ok {
			return
		}
		out, err := h.Users.Exists(r.Context(), id)
		if err != nil {
			h.fail(w, r, msgCheckUser, id, err)
			return
		}
		if out == nil {
			out = json.RawMessage("null")
		}
		api.WriteJSON(w, http.StatusOK, registrationResponse{Registered: out})
	}
}

// convertDate replaces data[field] with its storage pair when supplied.
func (h *Users) convertDate(data upstream.Record, field string) error {
	raw, ok := data[field]
	if !ok || !present(raw) {
		return nil
	}
	p, err := timestamp.ToStorage(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	data[field] = h.Keys.Encode(p)
	return nil
}
