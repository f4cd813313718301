package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	grpcapi "github.com/oshokin/catpoint/internal/api/grpc/security"
	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/repository/state"
	service "github.com/oshokin/catpoint/internal/service/security"
)

// catClassifier sees a cat in every image.
type catClassifier struct{}

// ContainsTarget always reports a cat.
func (catClassifier) ContainsTarget(context.Context, image.Image, float32) bool {
	return true
}

// newTestAPI starts an HTTP server over a real controller with an in-memory store.
func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()

	controller := service.NewController(state.NewMemoryStore(), catClassifier{})
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "# metrics")
	})

	server := httptest.NewServer(NewRouter(grpcapi.NewServer(controller), metrics))
	t.Cleanup(server.Close)

	return server
}

// call sends a request and decodes the JSON response into a generic value.
func call(t *testing.T, server *httptest.Server, method, path string, body io.Reader) (int, any) {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), method, server.URL+path, body)
	require.NoError(t, err)

	req.Header.Set(ActorHeader, "tester@localhost")

	resp, err := server.Client().Do(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	if len(data) == 0 || resp.Header.Get("Content-Type") != "application/json" {
		return resp.StatusCode, string(data)
	}

	var decoded any
	require.NoError(t, json.Unmarshal(data, &decoded))

	return resp.StatusCode, decoded
}

func TestRouter_Health(t *testing.T) {
	t.Parallel()

	server := newTestAPI(t)

	code, body := call(t, server, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, map[string]any{"status": "ok"}, body)

	code, body = call(t, server, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "# metrics", body)

	code, _ = call(t, server, http.MethodGet, "/v2/nothing", nil)
	require.Equal(t, http.StatusNotFound, code)
}

func TestRouter_SensorLifecycle(t *testing.T) {
	t.Parallel()

	server := newTestAPI(t)

	code, body := call(t, server, http.MethodPost, "/v1/sensors",
		strings.NewReader(`{"name":"Front door","type":"door"}`))
	require.Equal(t, http.StatusCreated, code)

	created, ok := body.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "Front door", created["name"])
	require.Equal(t, domain.Door.String(), created["type"])
	require.Equal(t, false, created["active"])

	id, ok := created["id"].(string)
	require.True(t, ok)

	code, _ = call(t, server, http.MethodPut, "/v1/arming", strings.NewReader(`{"arming_status":"ARMED_AWAY"}`))
	require.Equal(t, http.StatusOK, code)

	code, body = call(t, server, http.MethodPut, "/v1/sensors/"+id+"/activation", strings.NewReader(`{"active":true}`))
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body.(map[string]any)["active"])

	code, body = call(t, server, http.MethodGet, "/v1/state", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, domain.PendingAlarm.String(), body.(map[string]any)["alarm_status"])
	require.Nil(t, body.(map[string]any)["cat_detected"])

	code, body = call(t, server, http.MethodGet, "/v1/sensors/"+id, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, id, body.(map[string]any)["id"])

	code, body = call(t, server, http.MethodGet, "/v1/sensors", nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body, 1)

	code, body = call(t, server, http.MethodPost, "/v1/sensors/"+id+"/reevaluate", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, domain.PendingAlarm.String(), body.(map[string]any)["alarm_status"])

	code, _ = call(t, server, http.MethodDelete, "/v1/sensors/"+id, nil)
	require.Equal(t, http.StatusNoContent, code)

	code, _ = call(t, server, http.MethodDelete, "/v1/sensors/"+id, nil)
	require.Equal(t, http.StatusNotFound, code)

	code, _ = call(t, server, http.MethodGet, "/v1/sensors/"+id, nil)
	require.Equal(t, http.StatusNotFound, code)
}

func TestRouter_BadRequests(t *testing.T) {
	t.Parallel()

	server := newTestAPI(t)

	code, body := call(t, server, http.MethodPut, "/v1/arming", strings.NewReader(`{"arming_status":"SOMETIMES"}`))
	require.Equal(t, http.StatusBadRequest, code)
	require.Contains(t, body.(map[string]any)["error"], "unknown status")

	code, _ = call(t, server, http.MethodPut, "/v1/alarm", strings.NewReader(`not json`))
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = call(t, server, http.MethodPost, "/v1/sensors", strings.NewReader(`{"type":"door"}`))
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = call(t, server, http.MethodPut, "/v1/sensors/x/activation", strings.NewReader(`{}`))
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = call(t, server, http.MethodPost, "/v1/camera", strings.NewReader("garbage"))
	require.Equal(t, http.StatusBadRequest, code)
}

func TestRouter_CameraAndOverride(t *testing.T) {
	t.Parallel()

	server := newTestAPI(t)

	code, _ := call(t, server, http.MethodPut, "/v1/arming", strings.NewReader(`{"arming_status":"home"}`))
	require.Equal(t, http.StatusOK, code)

	var frame bytes.Buffer
	require.NoError(t, png.Encode(&frame, image.NewGray(image.Rect(0, 0, 2, 2))))

	code, body := call(t, server, http.MethodPost, "/v1/camera", &frame)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, domain.Alarm.String(), body.(map[string]any)["alarm_status"])
	require.Equal(t, true, body.(map[string]any)["cat_detected"])

	code, body = call(t, server, http.MethodPut, "/v1/alarm", strings.NewReader(`{"alarm_status":"no_alarm"}`))
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, domain.NoAlarm.String(), body.(map[string]any)["alarm_status"])
}
