// Package api provides the HTTP server, pages and API documentation.
package api

import (
	"bytes"
	_ "embed"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

//go:embed openapi.json
var openapiJSON []byte

// placeholderServer is the server entry in openapi.json, replaced per request.
const placeholderServer = `"url": "//localhost:5000"`

// SwaggerUIHTML returns a Swagger UI page loading the OpenAPI document at specURL.
func SwaggerUIHTML(specURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>medbot API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body style="margin:0">
    <div id="docs"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
        SwaggerUIBundle({ url: %q, dom_id: "#docs", tryItOutEnabled: true });
    </script>
</body>
</html>`, specURL)
}

// DocsRouter serves Swagger UI and the OpenAPI document.
type DocsRouter struct {
	specURL string
}

// NewDocsRouter creates a new DocsRouter.
func NewDocsRouter(specURL string) *DocsRouter {
	return &DocsRouter{specURL: specURL}
}

// Routes returns the chi router for documentation endpoints.
func (d *DocsRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", d.ui)
	router.Get("/openapi.json", d.spec)
	return router
}

func (d *DocsRouter) ui(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(SwaggerUIHTML(d.specURL)))
}

// spec points the document's server at the host the request came in on, so
// "Try it out" works behind proxies.
func (d *DocsRouter) spec(w http.ResponseWriter, r *http.Request) {
	server := fmt.Sprintf(`"url": %q`, requestOrigin(r))
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(bytes.Replace(openapiJSON, []byte(placeholderServer), []byte(server), 1))
}

// requestOrigin returns scheme://host as seen by the client.
func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = fwd
	}
	return scheme + "://" + host
}
