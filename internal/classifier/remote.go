package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/oshokin/catpoint/internal/logger"
)

// maxResponseSize caps the classifier response body.
const maxResponseSize = 1 << 20

// ErrUnexpectedStatus is returned for non-2xx classifier responses.
var ErrUnexpectedStatus = errors.New("unexpected classifier status")

// Label is one recognized object in a classifier response.
type Label struct {
	// Name is the object class, e.g. "cat".
	Name string `json:"name"`
	// Confidence is the score in the range [0, 1].
	Confidence float32 `json:"confidence"`
}

// Response is the body returned by the inference service.
type Response struct {
	Labels []Label `json:"labels"`
}

// RemoteSettings configures a Remote classifier.
type RemoteSettings struct {
	// URL is the inference endpoint receiving PNG images.
	URL string
	// Target is the label counted as a detection.
	Target string
	// Fallback is returned when the service is unavailable.
	Fallback bool
	// Timeout bounds a single request.
	Timeout time.Duration
	// MaxFailures opens the breaker after that many consecutive failures.
	MaxFailures uint32
	// OpenTimeout is how long the breaker rejects calls once open.
	OpenTimeout time.Duration
}

// Remote classifies images through an HTTP inference service.
type Remote struct {
	settings RemoteSettings
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
}

// NewRemote creates a remote classifier guarded by a circuit breaker.
func NewRemote(settings RemoteSettings) *Remote {
	maxFailures := settings.MaxFailures
	if maxFailures == 0 {
		maxFailures = 1
	}

	return &Remote{
		settings: settings,
		client:   &http.Client{Timeout: settings.Timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "classifier",
			Timeout: settings.OpenTimeout,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.WarnKV(context.Background(), "Circuit breaker state changed",
					"breaker", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

// ContainsTarget reports whether the service sees the target label with a
// confidence above threshold. Any failure yields the fallback verdict.
func (r *Remote) ContainsTarget(ctx context.Context, img image.Image, threshold float32) bool {
	// A missing image is the caller's fault and must not count against the service.
	if img == nil {
		logger.WarnKV(ctx, "No image to classify, using fallback", "fallback", r.settings.Fallback)

		return r.settings.Fallback
	}

	result, err := r.breaker.Execute(func() (any, error) {
		return r.classify(ctx, img)
	})
	if err != nil {
		logger.WarnKV(ctx, "Classifier unavailable, using fallback",
			"error", err, "fallback", r.settings.Fallback)

		return r.settings.Fallback
	}

	resp, ok := result.(*Response)
	if !ok {
		return r.settings.Fallback
	}

	return resp.Contains(r.settings.Target, threshold)
}

// Contains reports whether target appears with a confidence above threshold.
func (resp *Response) Contains(target string, threshold float32) bool {
	for _, l := range resp.Labels {
		if strings.EqualFold(l.Name, target) && l.Confidence > threshold {
			return true
		}
	}

	return false
}

func (r *Remote) classify(ctx context.Context, img image.Image) (*Response, error) {
	var body bytes.Buffer
	if err := png.Encode(&body, img); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.settings.URL, &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("Accept", "application/json")

	httpResp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	defer func() {
		if closeErr := httpResp.Body.Close(); closeErr != nil {
			logger.Warnf(ctx, "Failed to close classifier response: %v", closeErr)
		}
	}()

	if httpResp.StatusCode < http.StatusOK || httpResp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, httpResp.StatusCode)
	}

	var resp Response
	if err = json.NewDecoder(io.LimitReader(httpResp.Body, maxResponseSize)).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &resp, nil
}
