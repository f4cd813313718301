package classifier

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)

	return img
}

func newInferenceServer(t *testing.T, status int, resp Response, calls *atomic.Int32) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "image/png" {
			w.WriteHeader(http.StatusBadRequest)

			return
		}

		if _, err := png.Decode(r.Body); err != nil {
			w.WriteHeader(http.StatusBadRequest)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}))

	t.Cleanup(server.Close)

	return server
}

func TestRemote_ContainsTarget(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	server := newInferenceServer(t, http.StatusOK, Response{
		Labels: []Label{
			{Name: "sofa", Confidence: 0.99},
			{Name: "Cat", Confidence: 0.7},
		},
	}, &calls)

	r := NewRemote(RemoteSettings{
		URL:         server.URL,
		Target:      "cat",
		Timeout:     time.Second,
		MaxFailures: 3,
		OpenTimeout: time.Minute,
	})

	ctx := context.Background()

	require.True(t, r.ContainsTarget(ctx, testImage(), 0.5))
	require.False(t, r.ContainsTarget(ctx, testImage(), 0.8))
	require.Equal(t, int32(2), calls.Load())
}

func TestRemote_FallbackAndBreaker(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	server := newInferenceServer(t, http.StatusInternalServerError, Response{}, &calls)

	r := NewRemote(RemoteSettings{
		URL:         server.URL,
		Target:      "cat",
		Fallback:    true,
		Timeout:     time.Second,
		MaxFailures: 2,
		OpenTimeout: time.Minute,
	})

	ctx := context.Background()

	for range 5 {
		require.True(t, r.ContainsTarget(ctx, testImage(), 0.5))
	}

	// The breaker opens after two consecutive failures.
	require.Equal(t, int32(2), calls.Load())
}

func TestRemote_NoImage(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	resp := Response{Labels: []Label{{Name: "cat", Confidence: 0.9}}}
	server := newInferenceServer(t, http.StatusOK, resp, &calls)

	r := NewRemote(RemoteSettings{
		URL:         server.URL,
		Target:      "cat",
		Timeout:     time.Second,
		MaxFailures: 1,
		OpenTimeout: time.Minute,
	})

	ctx := context.Background()

	for range 3 {
		require.False(t, r.ContainsTarget(ctx, nil, 0.5))
	}

	require.Zero(t, calls.Load())

	// Missing images never trip the breaker, so the service is still asked.
	require.True(t, r.ContainsTarget(ctx, testImage(), 0.5))
	require.Equal(t, int32(1), calls.Load())
}

func TestResponse_Contains(t *testing.T) {
	t.Parallel()

	resp := &Response{Labels: []Label{{Name: "cat", Confidence: 0.5}}}

	require.False(t, resp.Contains("cat", 0.5))
	require.True(t, resp.Contains("CAT", 0.4))
	require.False(t, resp.Contains("dog", 0))
}
