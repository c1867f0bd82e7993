package discovery

import (
	"context"
	"log/slog"
	"sync"

	"github.com/netfab/topomapper/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// Runner — fan-out dispatcher for per-device discovery
// ─────────────────────────────────────────────────────────────────────────────

// DeviceResult is the outcome of one device's trip through the fallback
// chain.
type DeviceResult struct {
	Device       models.Device
	Step         string
	Observations []models.RawObservation
	Err          error
}

// Runner fans devices out to N worker goroutines running the orchestrator
// and collects results into a shared output channel.
type Runner struct {
	numWorkers int
	orch       *Orchestrator
	output     chan<- DeviceResult
	logger     *slog.Logger

	jobs chan models.Device
	wg   sync.WaitGroup
}

// NewRunner creates a pool of numWorkers goroutines that discover devices
// using orch and send results to output.
func NewRunner(numWorkers int, orch *Orchestrator, output chan<- DeviceResult, logger *slog.Logger) *Runner {
	if numWorkers <= 0 {
		numWorkers = 8
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &Runner{
		numWorkers: numWorkers,
		orch:       orch,
		output:     output,
		logger:     logger,
		jobs:       make(chan models.Device, numWorkers*2),
	}
}

// Start launches the worker goroutines. They run until ctx is cancelled or
// Stop is called.
func (r *Runner) Start(ctx context.Context) {
	for i := 0; i < r.numWorkers; i++ {
		r.wg.Add(1)
		go r.worker(ctx)
	}
}

// Submit enqueues a device. It blocks if the internal job channel is full.
func (r *Runner) Submit(device models.Device) {
	r.jobs <- device
}

// Stop closes the job channel and waits for all workers to drain.
func (r *Runner) Stop() {
	close(r.jobs)
	r.wg.Wait()
}

// worker is the per-goroutine loop. One device's failure is reported in its
// result and never stops the batch.
func (r *Runner) worker(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case device, ok := <-r.jobs:
			if !ok {
				return
			}
			obs, step, err := r.orch.Discover(ctx, device)
			if err != nil {
				r.logger.Warn("discovery failed",
					"device", snmpTarget(device),
					"error", err.Error(),
				)
			}
			select {
			case r.output <- DeviceResult{Device: device, Step: step, Observations: obs, Err: err}:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// RunStats summarises one discovery batch.
type RunStats struct {
	Devices      int
	Answered     int // devices whose winning step yielded observations
	Silent       int // devices that ran the whole chain without neighbors
	Failed       int // devices whose discovery errored out
	Observations int
	PerStep      map[string]int // winning-step histogram
}

// Discover runs the whole fleet through orch with numWorkers concurrent
// devices and gathers every observation.
func Discover(ctx context.Context, orch *Orchestrator, devices []models.Device, numWorkers int, logger *slog.Logger) ([]models.RawObservation, RunStats) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}

	output := make(chan DeviceResult, len(devices))
	runner := NewRunner(numWorkers, orch, output, logger)
	runner.Start(ctx)

	go func() {
		defer runner.Stop()
		for _, d := range devices {
			select {
			case runner.jobs <- d:
			case <-ctx.Done():
				return
			}
		}
	}()

	stats := RunStats{Devices: len(devices), PerStep: make(map[string]int)}
	var all []models.RawObservation
	for i := 0; i < len(devices); i++ {
		var res DeviceResult
		select {
		case res = <-output:
		case <-ctx.Done():
			return all, stats
		}
		switch {
		case res.Err != nil:
			stats.Failed++
		case len(res.Observations) > 0:
			stats.Answered++
			stats.PerStep[res.Step]++
		default:
			stats.Silent++
		}
		stats.Observations += len(res.Observations)
		all = append(all, res.Observations...)
	}
	return all, stats
}
