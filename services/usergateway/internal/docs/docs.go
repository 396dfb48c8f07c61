// Package docs serves the embedded OpenAPI document and a Swagger UI page.
package docs

import (
	_ "embed"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/user-gateway/internal/platform/api"
)

//go:embed openapi.json
var document []byte

// Document returns a copy of the OpenAPI document.
func Document() []byte {
	return append([]byte(nil), document...)
}

const uiPage = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>User gateway API</title>
<link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
<script>SwaggerUIBundle({url: %q, dom_id: "#swagger-ui"});</script>
</body>
</html>
`

// Routes mounts the UI page at base and the raw document at base/openapi.json.
func Routes(r chi.Router, base string) {
	base = "/" + strings.Trim(base, "/")
	docURL := strings.TrimSuffix(base, "/") + "/openapi.json"
	page := fmt.Sprintf(uiPage, docURL)

	r.Get(base, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(page))
	})
	r.Get(docURL, func(w http.ResponseWriter, _ *http.Request) {
		api.WriteRawJSON(w, http.StatusOK, document)
	})
}
