package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chervince/mon-projet/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(serverURL string) *VisionClient {
	return NewVisionClient(&config.OCRConfig{
		Endpoint: serverURL,
		APIKey:   "test-key",
		Timeout:  2 * time.Second,
	}, zap.NewNop())
}

func TestVisionClientDetectText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req annotateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Requests, 1)
		assert.Equal(t, "TEXT_DETECTION", req.Requests[0].Features[0].Type)
		assert.NotEmpty(t, req.Requests[0].Image.Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"responses": [
				{"textAnnotations": [{"description": "LULU'S CAFE\nTOTAL: 1 500 XPF"}, {"description": "LULU'S"}]}
			]
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	text, err := client.DetectText(context.Background(), []byte("fake-image"))
	require.NoError(t, err)
	// Only the first (full text) annotation is used.
	assert.Equal(t, "LULU'S CAFE\nTOTAL: 1 500 XPF", text)
}

func TestVisionClientNoAnnotations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"responses": [{}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.DetectText(context.Background(), []byte("fake-image"))
	assert.ErrorIs(t, err, ErrNoTextDetected)
}

func TestVisionClientProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.DetectText(context.Background(), []byte("fake-image"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoTextDetected)
}
