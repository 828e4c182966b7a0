// Package agents implements the six maintenance pipeline stages. Each stage
// is a total function over well-formed input that records its resource
// accesses on the Recorder it is given before producing a result.
package agents

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/tailored-agentic-units/fleetcare/ueba"
)

// Recorder receives every resource access a stage makes. *ueba.Monitor
// satisfies it.
type Recorder interface {
	Record(ctx context.Context, agent string, action ueba.Action, resource string, meta map[string]string)
}

// Clock returns the current time. Stages derive "today" from it in the
// clock's location.
type Clock func() time.Time

// NoiseSource draws the forecast perturbation. Fleet scans share one source
// across concurrent runs, so implementations must be safe for concurrent
// use; a bare *rand.Rand is not.
type NoiseSource interface {
	IntN(n int) int
}

type globalNoise struct{}

func (globalNoise) IntN(n int) int { return rand.IntN(n) }

// GlobalNoise draws from the process-wide math/rand/v2 source.
var GlobalNoise NoiseSource = globalNoise{}

// Today truncates the clock reading to midnight.
func (c Clock) Today() time.Time {
	now := c()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

const dateLayout = "2006-01-02"
