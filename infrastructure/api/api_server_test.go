package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aar-healthcare/medbot"
	"github.com/aar-healthcare/medbot/domain/chat"
	"github.com/aar-healthcare/medbot/domain/clinic"
	"github.com/aar-healthcare/medbot/infrastructure/api"
	"github.com/aar-healthcare/medbot/infrastructure/api/middleware"
	"github.com/aar-healthcare/medbot/infrastructure/api/v1/dto"
	"github.com/aar-healthcare/medbot/infrastructure/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tableEmbedder returns fixed vectors per text and points everything else
// away from every known vector.
type tableEmbedder struct {
	vectors map[string][]float64
}

func (e tableEmbedder) Embed(_ context.Context, req provider.EmbeddingRequest) (provider.EmbeddingResponse, error) {
	out := make([][]float64, len(req.Texts()))
	for i, text := range req.Texts() {
		if v, ok := e.vectors[text]; ok {
			out[i] = v
			continue
		}
		out[i] = []float64{0, 0, -1}
	}
	return provider.NewEmbeddingResponse(out, provider.Usage{}), nil
}

func (tableEmbedder) Capacity() int { return 8 }

func (tableEmbedder) Close() error { return nil }

var testClinics = []clinic.Clinic{
	clinic.NewClinic("AAR Sarit Centre", "Sarit Centre, Westlands, Nairobi", clinic.NewLocation(-1.2605, 36.8024), "+254 709 701 000"),
	clinic.NewClinic("AAR Thika", "Thika Town, Kiambu", clinic.NewLocation(-1.0333, 37.0693), "+254 709 701 001"),
	clinic.NewClinic("AAR Mombasa", "Nyali, Mombasa", clinic.NewLocation(-4.0435, 39.6682), "+254 709 701 002"),
	clinic.NewClinic("AAR Kisumu", "Mega Plaza, Kisumu", clinic.NewLocation(-0.0917, 34.7680), "+254 709 701 003"),
}

func newTestClient(t *testing.T) *medbot.Client {
	t.Helper()
	dir := t.TempDir()
	client, err := medbot.New(
		medbot.WithSQLite(filepath.Join(dir, "aar_clinics.db")),
		medbot.WithDataDir(dir),
		medbot.WithEmbeddingProvider(tableEmbedder{vectors: map[string][]float64{
			"Asthma affects the airways.": {1, 0, 0},
			"asthma affects the airways.": {1, 0, 0},
			"headache":                    {0, 0.6, 0.8},
			"fever":                       {0, 1, 0},
			"i am burning up":             {0, 1, 0},
		}}),
		medbot.WithKeywords(chat.NewKeywordTable([]chat.Entry{
			chat.NewEntry("headache", "Rest and drink water."),
			chat.NewEntry("fever", "Monitor your temperature."),
		})),
		medbot.WithKnowledge([]string{"Asthma affects the airways."}),
		medbot.WithClinics(testClinics),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Setup(context.Background()))
	return client
}

func newHandler(t *testing.T) http.Handler {
	t.Helper()
	return api.NewAPIServer(newTestClient(t), "1.0.0", nil, nil).Handler()
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func chatResponse(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp dto.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Response
}

func TestAPIServer_Pages(t *testing.T) {
	handler := newHandler(t)

	for path, want := range map[string]string{
		"/":     "AAR Healthcare Assistant",
		"/chat": `id="chat-form"`,
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html", path)
		assert.Contains(t, w.Body.String(), want, path)
	}
}

func TestAPIServer_Chat(t *testing.T) {
	handler := newHandler(t)

	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"keyword substring", "I have a HEADACHE today", "Rest and drink water."},
		{"knowledge retrieval", "asthma affects the airways.", "Asthma affects the airways." + chat.KnowledgeSuffix},
		{"semantic keyword", "I am burning up", "Monitor your temperature."},
		{"fallback", "I feel hot", chat.GenericFallback},
		{"blank", "   ", chat.EmptyPrompt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := json.Marshal(dto.ChatRequest{Message: tt.message})
			require.NoError(t, err)
			assert.Equal(t, tt.want, chatResponse(t, postJSON(t, handler, "/chat", string(body))))
		})
	}
}

func TestAPIServer_ChatMalformedBody(t *testing.T) {
	handler := newHandler(t)
	assert.Equal(t, chat.ErrorApology, chatResponse(t, postJSON(t, handler, "/chat", `not json`)))
}

func TestAPIServer_ChatVersionedPath(t *testing.T) {
	handler := newHandler(t)
	assert.Equal(t, "Monitor your temperature.", chatResponse(t, postJSON(t, handler, "/api/v1/chat", `{"message":"fever since monday"}`)))
}

func TestAPIServer_ChatCorrelationHeader(t *testing.T) {
	handler := newHandler(t)
	w := postJSON(t, handler, "/chat", `{"message":"headache"}`)
	assert.NotEmpty(t, w.Header().Get(middleware.CorrelationHeader))
}

func TestAPIServer_FindClinics(t *testing.T) {
	handler := newHandler(t)

	w := postJSON(t, handler, "/find-clinics", `{"location":{"lat":-1.2605,"lng":36.8024}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.FindClinicsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Clinics, clinic.DefaultNearest)
	assert.Equal(t, "AAR Sarit Centre", resp.Clinics[0].Name)
	assert.InDelta(t, 0, resp.Clinics[0].Distance, 1e-9)
	assert.Equal(t, "AAR Thika", resp.Clinics[1].Name)
	for i := 1; i < len(resp.Clinics); i++ {
		assert.LessOrEqual(t, resp.Clinics[i-1].Distance, resp.Clinics[i].Distance)
	}
	assert.NotZero(t, resp.Clinics[0].ID)
}

func TestAPIServer_FindClinicsInvalidLocation(t *testing.T) {
	handler := newHandler(t)

	w := postJSON(t, handler, "/find-clinics", `{"location":{"lat":"nairobi","lng":36.8}}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, middleware.InvalidLocationMessage, resp.Error)
}

func TestAPIServer_FindClinicsBodyTooLarge(t *testing.T) {
	handler := newHandler(t)

	body := `{"location":{"lat":1,"lng":2},"pad":"` + strings.Repeat("x", api.MaxRequestBody) + `"}`
	w := postJSON(t, handler, "/find-clinics", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestAPIServer_Health(t *testing.T) {
	handler := newHandler(t)

	for _, path := range []string{"/health", "/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestAPIServer_NotReadyBeforeSetup(t *testing.T) {
	dir := t.TempDir()
	client, err := medbot.New(
		medbot.WithSQLite(filepath.Join(dir, "aar_clinics.db")),
		medbot.WithDataDir(dir),
		medbot.WithEmbeddingProvider(tableEmbedder{}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	handler := api.NewAPIServer(client, "1.0.0", nil, nil).Handler()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAPIServer_Docs(t *testing.T) {
	handler := newHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/docs/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/docs/openapi.json")

	req = httptest.NewRequest(http.MethodGet, "/docs/openapi.json", nil)
	req.Host = "medbot.example:8443"
	req.Header.Set("X-Forwarded-Proto", "https")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var spec struct {
		Servers []struct {
			URL string `json:"url"`
		} `json:"servers"`
		Paths map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &spec))
	require.Len(t, spec.Servers, 1)
	assert.Equal(t, "https://medbot.example:8443", spec.Servers[0].URL)
	assert.Contains(t, spec.Paths, "/chat")
	assert.Contains(t, spec.Paths, "/find-clinics")
}
