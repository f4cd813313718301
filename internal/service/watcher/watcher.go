package watcher

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
	pb "github.com/oshokin/catpoint/internal/pb/v1"
	"github.com/oshokin/catpoint/internal/service/client"
	"github.com/oshokin/catpoint/internal/service/common"
)

// Options controls the polling behavior.
type Options struct {
	// Interval defines the pause between state checks.
	Interval time.Duration
	// ExitOnAlarm stops watching with ErrAlarmRaised once the alarm is fully triggered.
	ExitOnAlarm bool
}

// DefaultInterval is used when Options.Interval is not positive.
const DefaultInterval = 5 * time.Second

// ErrAlarmRaised is returned when ExitOnAlarm is set and the alarm fires.
var ErrAlarmRaised = errors.New("alarm raised")

// Action returns a client action that polls the state until ctx is canceled.
func Action(opts Options) client.Action {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	return func(ctx context.Context, c *common.Client, out io.Writer) error {
		ctx = logger.WithName(ctx, "watcher")

		logger.InfoKV(ctx, "Watching controller state", "interval", interval.String())

		w := &watcher{
			out:         out,
			exitOnAlarm: opts.ExitOnAlarm,
		}

		// Report the current state right away instead of waiting a full tick.
		if err := w.poll(ctx, c); err != nil {
			return err
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Info(ctx, "Context canceled, exiting")

				return nil
			case <-ticker.C:
				if err := w.poll(ctx, c); err != nil {
					return err
				}
			}
		}
	}
}

// watcher remembers the last observed state between polls.
type watcher struct {
	out         io.Writer
	last        *pb.State
	exitOnAlarm bool
}

// poll fetches the state and reports what changed since the previous poll.
// Transient failures are logged and skipped.
func (w *watcher) poll(ctx context.Context, c *common.Client) error {
	state, err := c.State(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil //nolint:nilerr // Cancellation ends the watch normally.
		}

		logger.ErrorKV(ctx, "Check state failed", "error", err)

		return nil
	}

	for _, line := range Changes(w.last, state) {
		logger.Info(ctx, line)

		if _, err = io.WriteString(w.out, time.Now().Format(time.TimeOnly)+" "+line+"\n"); err != nil {
			return err
		}
	}

	w.last = state

	if w.exitOnAlarm && state.Snapshot.AlarmStatus == domain.Alarm {
		return ErrAlarmRaised
	}

	return nil
}

// Changes describes the differences between two states. A nil previous
// state reports every value.
func Changes(previous, current *pb.State) []string {
	var lines []string

	if previous == nil || previous.Snapshot.AlarmStatus != current.Snapshot.AlarmStatus {
		lines = append(lines, "Alarm status: "+current.Snapshot.AlarmStatus.String())
	}

	if previous == nil || previous.Snapshot.ArmingStatus != current.Snapshot.ArmingStatus {
		lines = append(lines, "Arming status: "+current.Snapshot.ArmingStatus.String())
	}

	if previous == nil || detection(previous) != detection(current) {
		lines = append(lines, "Camera: "+detection(current))
	}

	if previous == nil || activeList(previous) != activeList(current) {
		lines = append(lines, "Active sensors: "+activeList(current))
	}

	return lines
}

func detection(state *pb.State) string {
	switch {
	case state.CatDetected == nil:
		return "unknown"
	case *state.CatDetected:
		return "cat detected"
	default:
		return "no cat"
	}
}

func activeList(state *pb.State) string {
	var names []string

	for _, s := range state.Snapshot.Sensors {
		if s.Active {
			names = append(names, s.Name)
		}
	}

	if len(names) == 0 {
		return "none"
	}

	return strings.Join(names, ", ")
}
