package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/user-gateway/internal/platform/api"
	"github.com/example/user-gateway/services/usergateway/internal/upstream"
)

const maxRequestBodyBytes = 1 << 20 // 1 MiB

// decodeRecord reads a JSON object body. An empty body is an empty object.
// On failure it writes a 400 response and returns false.
func decodeRecord(w http.ResponseWriter, r *http.Request, rid string) (upstream.Record, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err != nil {
		api.BadRequest(w, "INVALID_JSON", "Invalid JSON", rid, nil)
		return nil, false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return upstream.Record{}, true
	}
	var rec upstream.Record
	if err := json.Unmarshal(body, &rec); err != nil || rec == nil {
		api.BadRequest(w, "INVALID_JSON", "Body must be a JSON object", rid, nil)
		return nil, false
	}
	return rec, true
}

// pathID returns the {id} route parameter. On absence it writes a 400
// response and returns false.
func pathID(w http.ResponseWriter, r *http.Request, rid string) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		api.BadRequest(w, "MISSING_ID", "id is required", rid, nil)
		return "", false
	}
	return id, true
}

// present reports whether an optional date field was supplied. Missing keys
// and the falsy JSON values null, false, 0 and "" all count as absent and
// are forwarded untouched.
func present(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return false
	}
	switch string(v) {
	case "null", "false", `""`:
		return false
	}
	var n float64
	if err := json.Unmarshal(v, &n); err == nil && n == 0 {
		return false
	}
	return true
}

// recordID pulls "id" or "uid" out of an upstream answer, if it has one.
func recordID(raw json.RawMessage) string {
	var obj struct {
		ID  string `json:"id"`
		UID string `json:"uid"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	if obj.ID != "" {
		return obj.ID
	}
	return obj.UID
}
