package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
)

// UserClient talks to the user service:
// /users, /users/{id} and /users/{id}/exists.
type UserClient struct {
	c *Client
}

func NewUserClient(baseURL string, opts ...Option) *UserClient {
	return &UserClient{c: newClient("user", baseURL, opts)}
}

// GetByID returns the user object. A body that is not a JSON object is
// reported as KindMalformed.
func (u *UserClient) GetByID(ctx context.Context, id string) (Record, error) {
	raw, err := u.c.do(ctx, "get", http.MethodGet, "/users/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil || rec == nil {
		if err == nil {
			err = errors.New("user is not a JSON object")
		}
		return nil, &Error{Upstream: u.c.Name, Op: "get", Kind: KindMalformed, Body: string(raw[:min(len(raw), 200)]), Err: err}
	}
	return rec, nil
}

// Create posts data and returns the upstream body unchanged.
func (u *UserClient) Create(ctx context.Context, data Record) (json.RawMessage, error) {
	return u.c.do(ctx, "create", http.MethodPost, "/users", data)
}

// Update puts data and returns the upstream body unchanged.
func (u *UserClient) Update(ctx context.Context, id string, data Record) (json.RawMessage, error) {
	return u.c.do(ctx, "update", http.MethodPut, "/users/"+url.PathEscape(id), data)
}

func (u *UserClient) Delete(ctx context.Context, id string) error {
	_, err := u.c.do(ctx, "delete", http.MethodDelete, "/users/"+url.PathEscape(id), nil)
	return err
}

// Exists returns whatever the upstream answers, normally a JSON boolean.
func (u *UserClient) Exists(ctx context.Context, id string) (json.RawMessage, error) {
	return u.c.do(ctx, "exists", http.MethodGet, "/users/"+url.PathEscape(id)+"/exists", nil)
}
