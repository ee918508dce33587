package sim

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/san-kum/levelflow/internal/dynamo"
	"github.com/san-kum/levelflow/internal/logging"
)

// Scheduler drives a Simulation from a single goroutine at a fixed frame
// interval. It re-arms every frame whether or not any mode is active.
type Scheduler struct {
	sim      *Simulation
	interval time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	onFrame func(Snapshot)
	epoch   time.Time

	stopped  chan struct{}
	stopOnce sync.Once

	paused atomic.Bool
	frames atomic.Uint64
}

func NewScheduler(s *Simulation, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = FrameInterval
	}
	return &Scheduler{sim: s, interval: interval, log: s.log, epoch: time.Now(), stopped: make(chan struct{})}
}

// Done is closed by the first call to Stop.
func (sc *Scheduler) Done() <-chan struct{} { return sc.stopped }

// SetLogger replaces the scheduler logger.
func (sc *Scheduler) SetLogger(l *slog.Logger) {
	if l == nil {
		l = logging.Discard()
	}
	sc.log = l
}

// OnFrame registers fn to receive every snapshot. fn runs on the scheduler
// goroutine and must not call Stop.
func (sc *Scheduler) OnFrame(fn func(Snapshot)) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.onFrame = fn
}

func (sc *Scheduler) Start(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.done != nil {
		return dynamo.ErrSchedulerRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	sc.cancel = cancel
	sc.done = make(chan struct{})
	go sc.loop(ctx, sc.done)
	sc.log.Info("scheduler started", "interval", sc.interval)
	return nil
}

func (sc *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(sc.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if sc.paused.Load() {
				continue
			}
			// a Stop racing with the ticker must win
			if ctx.Err() != nil {
				return
			}
			sc.Tick(float64(now.Sub(sc.epoch)) / float64(time.Millisecond))
		}
	}
}

// Stop cancels the loop and waits for its goroutine to exit. No frame is
// delivered after Stop returns. Stopping a stopped scheduler is a no-op.
func (sc *Scheduler) Stop() {
	sc.mu.Lock()
	cancel, done := sc.cancel, sc.done
	sc.cancel, sc.done = nil, nil
	sc.mu.Unlock()
	defer sc.stopOnce.Do(func() { close(sc.stopped) })
	if done == nil {
		return
	}
	cancel()
	<-done
	sc.log.Info("scheduler stopped", "frames", sc.frames.Load())
}

func (sc *Scheduler) Running() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.done != nil
}

// Tick runs one frame synchronously and delivers it to the frame hook.
func (sc *Scheduler) Tick(frameMillis float64) Snapshot {
	snap := sc.sim.Frame(frameMillis)
	sc.frames.Add(1)
	sc.mu.Lock()
	fn := sc.onFrame
	sc.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
	return snap
}

func (sc *Scheduler) SetPaused(p bool) { sc.paused.Store(p) }

func (sc *Scheduler) Paused() bool { return sc.paused.Load() }

func (sc *Scheduler) Frames() uint64 { return sc.frames.Load() }

func (sc *Scheduler) Simulation() *Simulation { return sc.sim }
