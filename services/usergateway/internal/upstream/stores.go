package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// StoreClient talks to the store service.
type StoreClient struct {
	c *Client
}

func NewStoreClient(baseURL string, opts ...Option) *StoreClient {
	return &StoreClient{c: newClient("store", baseURL, opts)}
}

// GetByUserID returns the store attached to a user, unchanged.
func (s *StoreClient) GetByUserID(ctx context.Context, userID string) (json.RawMessage, error) {
	return s.c.do(ctx, "get_by_user_id", http.MethodGet, "/store/user/"+url.PathEscape(userID), nil)
}
