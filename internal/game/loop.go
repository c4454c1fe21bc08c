package game

import (
	"context"
	"log/slog"
	"time"

	"github.com/vrstore/storefront/internal/domain"
	"github.com/vrstore/storefront/internal/events"
)

// maxDelta clamps frame time after stalls so simulation steps stay bounded.
const maxDelta = 0.1

// Loop drives the update/render cycle on a single goroutine. Update
// callbacks are skipped while the machine is paused; render callbacks
// always run.
type Loop struct {
	machine  *Machine
	bus      *events.Bus
	logger   *slog.Logger
	interval time.Duration

	updateCallbacks []func(delta float64)
	renderCallbacks []func(delta float64)

	cancel context.CancelFunc
	done   chan struct{}

	frames    int
	fpsWindow time.Time
}

// NewLoop builds a loop ticking at the given interval. Callbacks must be
// registered before Start.
func NewLoop(machine *Machine, bus *events.Bus, logger *slog.Logger, interval time.Duration) *Loop {
	if interval <= 0 {
		interval = time.Second / 60
	}
	return &Loop{
		machine:  machine,
		bus:      bus,
		logger:   logger,
		interval: interval,
	}
}

// OnUpdate registers a simulation callback, invoked in registration order.
func (l *Loop) OnUpdate(callback func(delta float64)) {
	l.updateCallbacks = append(l.updateCallbacks, callback)
}

// OnRender registers a render callback. Render runs even while paused.
func (l *Loop) OnRender(callback func(delta float64)) {
	l.renderCallbacks = append(l.renderCallbacks, callback)
}

// Start launches the loop goroutine. Calling Start on a running loop is a
// logged no-op.
func (l *Loop) Start(ctx context.Context) {
	if l.cancel != nil {
		l.logger.Warn("frame loop already running")
		return
	}

	ctx, l.cancel = context.WithCancel(ctx)
	l.done = make(chan struct{})
	l.fpsWindow = time.Now()

	go l.run(ctx)
}

// Stop halts the loop before its next tick and waits for the goroutine to
// exit.
func (l *Loop) Stop() {
	if l.cancel == nil {
		return
	}
	l.cancel()
	<-l.done
	l.cancel = nil
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			delta := clampDelta(now.Sub(last).Seconds())
			last = now
			l.step(delta)
			l.trackFPS(now)
		}
	}
}

// step runs one frame: update phase unless paused, then render phase. A
// panicking callback is logged and does not take down the loop.
func (l *Loop) step(delta float64) {
	if !l.machine.Is(StatePaused) {
		l.machine.Update(delta)
		for _, callback := range l.updateCallbacks {
			l.invoke("update", callback, delta)
		}
	}
	for _, callback := range l.renderCallbacks {
		l.invoke("render", callback, delta)
	}
}

func (l *Loop) invoke(phase string, callback func(delta float64), delta float64) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("frame callback panicked", "phase", phase, "panic", r)
		}
	}()
	callback(delta)
}

func (l *Loop) trackFPS(now time.Time) {
	l.frames++
	if elapsed := now.Sub(l.fpsWindow); elapsed >= time.Second {
		fps := float64(l.frames) / elapsed.Seconds()
		l.frames = 0
		l.fpsWindow = now
		l.bus.Publish(domain.EventFPSUpdate, fps)
	}
}

func clampDelta(delta float64) float64 {
	if delta > maxDelta {
		return maxDelta
	}
	if delta < 0 {
		return 0
	}
	return delta
}
