package provider

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingServer(t *testing.T, hits *atomic.Int64, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Echo", "yes")
		w.WriteHeader(status)
		_, _ = w.Write([]byte("echo:" + string(body)))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, client *http.Client, url, body string) (int, string, http.Header) {
	t.Helper()
	resp, err := client.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data), resp.Header
}

func TestCachingTransport_ReplaysIdenticalPost(t *testing.T) {
	var hits atomic.Int64
	srv := countingServer(t, &hits, http.StatusOK)
	client := &http.Client{Transport: NewCachingTransport(t.TempDir(), nil)}

	status, body, _ := post(t, client, srv.URL, `{"input":["fever"]}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, `echo:{"input":["fever"]}`, body)

	status, body, header := post(t, client, srv.URL, `{"input":["fever"]}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, `echo:{"input":["fever"]}`, body)
	assert.Equal(t, "yes", header.Get("X-Echo"))

	assert.Equal(t, int64(1), hits.Load())
}

func TestCachingTransport_DifferentBodiesMiss(t *testing.T) {
	var hits atomic.Int64
	srv := countingServer(t, &hits, http.StatusOK)
	client := &http.Client{Transport: NewCachingTransport(t.TempDir(), nil)}

	post(t, client, srv.URL, `{"input":["fever"]}`)
	post(t, client, srv.URL, `{"input":["cough"]}`)

	assert.Equal(t, int64(2), hits.Load())
}

func TestCachingTransport_SkipsErrors(t *testing.T) {
	var hits atomic.Int64
	srv := countingServer(t, &hits, http.StatusServiceUnavailable)
	dir := t.TempDir()
	client := &http.Client{Transport: NewCachingTransport(dir, nil)}

	status, _, _ := post(t, client, srv.URL, `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	post(t, client, srv.URL, `{}`)

	assert.Equal(t, int64(2), hits.Load())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCachingTransport_PassesThroughGet(t *testing.T) {
	var hits atomic.Int64
	srv := countingServer(t, &hits, http.StatusOK)
	client := &http.Client{Transport: NewCachingTransport(t.TempDir(), nil)}

	for range 2 {
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	assert.Equal(t, int64(2), hits.Load())
}

func TestCachingTransport_SurvivesCorruptEntry(t *testing.T) {
	var hits atomic.Int64
	srv := countingServer(t, &hits, http.StatusOK)
	dir := t.TempDir()
	client := &http.Client{Transport: NewCachingTransport(dir, nil)}

	post(t, client, srv.URL, `{}`)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NoError(t, os.WriteFile(dir+"/"+entries[0].Name(), []byte("not json"), 0o644))

	_, body, _ := post(t, client, srv.URL, `{}`)
	assert.Equal(t, "echo:{}", body)
	assert.Equal(t, int64(2), hits.Load())
}

func TestKey_Stable(t *testing.T) {
	a := key("POST", "http://x/embeddings", []byte("body"))
	b := key("POST", "http://x/embeddings", []byte("body"))
	c := key("POST", "http://y/embeddings", []byte("body"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
