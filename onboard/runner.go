package onboard

import (
	"context"
	"sync"
	"time"

	"github.com/CodedInternet/gomixer/logging"
	"github.com/CodedInternet/gomixer/onboard/hardware"
)

// Runner drives a Multirotor at a fixed rate. Only the most recent command
// is kept; it is re-applied every period until it goes stale, at which point
// the motors are stopped until a fresh command arrives.
type Runner struct {
	device   *Multirotor
	interval time.Duration
	failsafe time.Duration
	log      logging.Logger
	metrics  *Metrics

	lock    sync.Mutex
	armed   bool
	cmd     hardware.Command
	lastCmd time.Time
	ticks   uint64
}

func NewRunner(device *Multirotor, rateHz int, failsafe time.Duration, log logging.Logger, metrics *Metrics) *Runner {
	if rateHz <= 0 {
		rateHz = DEFAULT_RATE_HZ
	}
	if log == nil {
		log = logging.Noop()
	}

	return &Runner{
		device:   device,
		interval: time.Second / time.Duration(rateHz),
		failsafe: failsafe,
		log:      log,
		metrics:  metrics,
	}
}

// SetCommand replaces the pending command and arms the runner.
func (r *Runner) SetCommand(cmd hardware.Command) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if !r.armed {
		r.log.Info(context.Background(), "armed")
	}
	r.cmd = cmd
	r.lastCmd = time.Now()
	r.armed = true
}

// Stop disarms the runner and writes the minimum pulse to every motor
// before returning.
func (r *Runner) Stop() {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.stop()
	if r.metrics != nil {
		r.metrics.stops.Inc()
	}
	r.log.Info(context.Background(), "stopped")
}

func (r *Runner) stop() {
	r.armed = false
	r.device.Stop()
}

func (r *Runner) Armed() bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.armed
}

func (r *Runner) Command() (cmd hardware.Command, armed bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.cmd, r.armed
}

func (r *Runner) Interval() time.Duration {
	return r.interval
}

// Run ticks until ctx is done, then stops every motor.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info(ctx, "control loop started",
		logging.String("frame", r.device.Name),
		logging.Any("interval", r.interval),
		logging.Any("failsafe", r.failsafe))

	for {
		select {
		case <-ctx.Done():
			r.lock.Lock()
			r.stop()
			r.lock.Unlock()
			r.log.Info(ctx, "control loop finished", logging.Any("ticks", r.ticks))
			return ctx.Err()

		case now := <-ticker.C:
			r.tick(ctx, now)
		}
	}
}

func (r *Runner) tick(ctx context.Context, now time.Time) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.ticks++
	if !r.armed {
		return
	}

	if r.failsafe > 0 && now.Sub(r.lastCmd) > r.failsafe {
		r.stop()
		if r.metrics != nil {
			r.metrics.failsafes.Inc()
		}
		r.log.Warn(ctx, "failsafe: no fresh command", logging.Any("age", now.Sub(r.lastCmd)))
		return
	}

	r.device.Update(r.cmd)
}
