package api

import (
	"embed"
	"net/http"
)

//go:embed web/index.html web/chat.html
var pages embed.FS

// page serves one embedded HTML file.
func page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		data, err := pages.ReadFile("web/" + name)
		if err != nil {
			http.Error(w, "Page not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(data)
	}
}
