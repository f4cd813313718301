package classifier

import (
	"context"
	"image"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/oshokin/catpoint/internal/logger"
)

// Random reports a detection when a uniformly drawn confidence exceeds the threshold.
type Random struct {
	// rnd is the confidence source.
	rnd *rand.Rand
	// mu guards rnd, which is not safe for concurrent use.
	mu sync.Mutex
}

// NewRandom creates a random classifier. A zero seed picks one from the clock.
func NewRandom(seed uint64) *Random {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) //nolint:gosec // Seed only, sign does not matter.
	}

	return &Random{
		rnd: rand.New(rand.NewPCG(seed, seed)), //nolint:gosec // Not used for security.
	}
}

// ContainsTarget ignores the image and compares a random confidence with threshold.
func (r *Random) ContainsTarget(ctx context.Context, _ image.Image, threshold float32) bool {
	r.mu.Lock()
	confidence := r.rnd.Float32()
	r.mu.Unlock()

	logger.DebugKV(ctx, "Random classification", "confidence", confidence, "threshold", threshold)

	return confidence > threshold
}
