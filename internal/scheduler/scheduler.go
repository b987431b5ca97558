// Package scheduler runs one independent task per monitor: wait the
// configured initial delay, then run on a fixed interval until stopped,
// resetting a deadline-based timer each iteration rather than sleeping so
// long-running requests don't accumulate drift into the schedule.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dwsmith1983/xbp-monitoring/internal/alert"
	"github.com/dwsmith1983/xbp-monitoring/internal/runner"
	"github.com/dwsmith1983/xbp-monitoring/internal/store"
	"github.com/dwsmith1983/xbp-monitoring/internal/telemetry"
	"github.com/dwsmith1983/xbp-monitoring/pkg/types"
)

// runOutcome is what one execution of a monitor's runner produced, plus
// the alert targets that execution's owning probe or story configured.
type runOutcome struct {
	result  types.RunResult
	targets []types.AlertTarget
}

// task tracks one running monitor loop.
type task struct {
	cancel context.CancelFunc
	run    func(context.Context) runOutcome
}

// Scheduler owns the set of currently running per-monitor task loops.
type Scheduler struct {
	store    *store.Store
	runner   *runner.Runner
	alerts   *alert.Dispatcher
	emitter  *telemetry.Emitter
	logger   *slog.Logger

	mu    sync.Mutex
	tasks map[types.MonitorKey]*task
	group *errgroup.Group
}

// New returns an idle Scheduler with no running tasks.
func New(st *store.Store, r *runner.Runner, dispatcher *alert.Dispatcher, emitter *telemetry.Emitter, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:   st,
		runner:  r,
		alerts:  dispatcher,
		emitter: emitter,
		logger:  logger,
		tasks:   make(map[types.MonitorKey]*task),
	}
}

// Start launches one task per probe and story in cfg. ctx bounds the whole
// task group's lifetime; Stop should still be called to wait for a clean
// drain on shutdown.
func (s *Scheduler) Start(ctx context.Context, cfg *types.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, groupCtx := errgroup.WithContext(ctx)
	s.group = group

	for _, probe := range cfg.Probes {
		s.startTaskLocked(groupCtx, types.MonitorKey{Kind: types.KindProbe, Name: probe.Name}, types.ResolveSchedule(probe.Schedule), s.probeRunFunc(probe))
	}
	for _, story := range cfg.Stories {
		s.startTaskLocked(groupCtx, types.MonitorKey{Kind: types.KindStory, Name: story.Name}, types.ResolveSchedule(story.Schedule), s.storyRunFunc(story))
	}
}

func (s *Scheduler) startTaskLocked(ctx context.Context, key types.MonitorKey, schedule types.ScheduleConfig, run func(context.Context) runOutcome) {
	taskCtx, cancel := context.WithCancel(ctx)
	t := &task{cancel: cancel, run: run}
	s.tasks[key] = t

	s.group.Go(func() error {
		s.loop(taskCtx, key, schedule, t)
		return nil
	})
}

// loop implements the wait-run-wait cycle for a single monitor.
func (s *Scheduler) loop(ctx context.Context, key types.MonitorKey, schedule types.ScheduleConfig, t *task) {
	initialDelay := time.Duration(schedule.InitialDelaySeconds) * time.Second
	interval := time.Duration(schedule.IntervalSeconds) * time.Second

	timer := time.NewTimer(initialDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			deadline := time.Now().Add(interval)
			s.execute(ctx, key, t.run)
			timer.Reset(time.Until(deadline))
			continue
		}
	}
}

// execute runs one iteration of key's monitor: write the Result Store,
// emit metrics (story runs additionally emit one step-level metric per
// executed step), and only then dispatch alerts on failure — matching the
// spec's store-write, then-metrics, then-alert-dispatch ordering.
func (s *Scheduler) execute(ctx context.Context, key types.MonitorKey, run func(context.Context) runOutcome) types.RunResult {
	outcome := run(ctx)
	result := outcome.result
	s.store.Set(key, result)

	if s.emitter != nil {
		s.emitter.RecordRun(ctx, key.Name, string(key.Kind), "", result.OK, result.DurationMS, result.HTTPStatusCode)
		if key.Kind == types.KindStory {
			for _, step := range result.Steps {
				s.emitter.RecordRun(ctx, step.StepName, string(types.KindStep), key.Name, step.OK, step.DurationMS, step.HTTPStatusCode)
			}
		}
	}

	if !result.OK {
		s.logger.Warn("monitor run failed", "kind", key.Kind, "name", key.Name, "error", result.Error)
		if s.alerts != nil {
			s.alerts.Dispatch(ctx, outcome.targets, buildAlert(key.Kind, key.Name, result))
		}
	}

	return result
}

func (s *Scheduler) probeRunFunc(probe types.Probe) func(context.Context) runOutcome {
	return func(ctx context.Context) runOutcome {
		return runOutcome{result: s.runner.RunProbe(ctx, probe), targets: probe.Alerts}
	}
}

func (s *Scheduler) storyRunFunc(story types.Story) func(context.Context) runOutcome {
	return func(ctx context.Context) runOutcome {
		return runOutcome{result: s.runner.RunStory(ctx, story), targets: story.Alerts}
	}
}

func buildAlert(kind types.MonitorKind, name string, result types.RunResult) types.Alert {
	message := "monitor failed"
	if result.Error != "" {
		message = result.Error
	} else if len(result.FailedExpectations) > 0 {
		message = "expectation failed"
	}
	return types.Alert{
		MonitorKind: kind,
		MonitorName: name,
		OK:          result.OK,
		Message:     message,
		Timestamp:   result.Timestamp,
		Result:      result,
	}
}

// RunNow executes key's monitor immediately, out-of-band from its normal
// tick cadence, and returns the fresh result — the control plane's trigger
// routes call this synchronously so they can hand the caller the result of
// the run they just asked for. It runs concurrently with the monitor's own
// scheduled loop rather than disturbing it; both write independently to the
// Result Store, last write wins.
func (s *Scheduler) RunNow(ctx context.Context, key types.MonitorKey) (types.RunResult, bool) {
	s.mu.Lock()
	t, ok := s.tasks[key]
	s.mu.Unlock()
	if !ok {
		return types.RunResult{}, false
	}
	return s.execute(ctx, key, t.run), true
}

// Keys returns every monitor key currently scheduled.
func (s *Scheduler) Keys() map[types.MonitorKey]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[types.MonitorKey]struct{}, len(s.tasks))
	for k := range s.tasks {
		out[k] = struct{}{}
	}
	return out
}

// Stop cancels every running task and waits for their loops to exit.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	for _, t := range s.tasks {
		t.cancel()
	}
	group := s.group
	s.tasks = make(map[types.MonitorKey]*task)
	s.mu.Unlock()

	if group == nil {
		return nil
	}
	return group.Wait()
}
