package ingest

import (
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

// Sample is one observation point, captured after each successful flush.
// Samples are purely observational and never feed back into the pipeline.
type Sample struct {
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Throughput     float64 `json:"throughput"` // cumulative units / elapsed
	CPUPercent     float64 `json:"cpu_percent"`
	RAMPercent     float64 `json:"ram_percent"`
	Remaining      int     `json:"remaining"`
	DBWaitSeconds  float64 `json:"db_wait_seconds"`
	CtxSwitchRate  float64 `json:"ctx_switch_rate"` // switches per second since last sample
}

// Sampler captures per-flush resource and throughput observations into an
// append-only time series.
type Sampler struct {
	start   time.Time
	proc    *process.Process
	lastCtx int64 // monotonic context-switch counter at the previous sample
	lastAt  time.Time
	samples []Sample
	logger  *zap.SugaredLogger
}

// NewSampler starts the pipeline clock and primes the context-switch and CPU
// counters so the first sample reports a delta rather than an absolute.
func NewSampler(logger *zap.SugaredLogger) *Sampler {
	now := time.Now()
	s := &Sampler{
		start:  now,
		lastAt: now,
		logger: logger,
	}

	// Process handle for the context-switch counter. Unsupported platforms
	// just leave ctx-switch rates at zero.
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		s.proc = proc
		s.lastCtx = s.ctxSwitches()
	}

	// First cpu.Percent call primes the counter; later calls return usage
	// since the previous call.
	cpu.Percent(0, false)

	return s
}

// Sample captures one observation point. unitsDone is cumulative progress,
// remaining is the outstanding unit count, dbWait is the last measured
// commit duration.
func (s *Sampler) Sample(unitsDone, remaining int, dbWait time.Duration) Sample {
	now := time.Now()
	elapsed := now.Sub(s.start).Seconds()

	sample := Sample{
		ElapsedSeconds: elapsed,
		Remaining:      remaining,
		DBWaitSeconds:  dbWait.Seconds(),
	}
	if elapsed > 0 {
		sample.Throughput = float64(unitsDone) / elapsed
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		sample.CPUPercent = percents[0]
	} else if err != nil && s.logger != nil {
		s.logger.Debugw("CPU sample unavailable", "error", err)
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		sample.RAMPercent = vm.UsedPercent
	} else if s.logger != nil {
		s.logger.Debugw("Memory sample unavailable", "error", err)
	}

	// Context-switch rate: delta of the monotonic counter over inter-sample
	// elapsed time, guarded against a zero interval
	current := s.ctxSwitches()
	if dt := now.Sub(s.lastAt).Seconds(); dt > 0 && current > 0 {
		sample.CtxSwitchRate = float64(current-s.lastCtx) / dt
	}
	s.lastCtx = current
	s.lastAt = now

	s.samples = append(s.samples, sample)
	return sample
}

// Samples returns the collected time series.
func (s *Sampler) Samples() []Sample {
	return s.samples
}

// Elapsed returns wall time since the pipeline started.
func (s *Sampler) Elapsed() time.Duration {
	return time.Since(s.start)
}

func (s *Sampler) ctxSwitches() int64 {
	if s.proc == nil {
		return 0
	}
	stat, err := s.proc.NumCtxSwitches()
	if err != nil || stat == nil {
		return 0
	}
	return stat.Voluntary + stat.Involuntary
}
