package session

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"gravitybench.ai/internal/physics"
	"gravitybench.ai/internal/physics/rigid"
	"gravitybench.ai/internal/protocol"
	"gravitybench.ai/internal/sim/task"
)

// Defaults are the documented base configuration a reset merges the caller's
// overrides onto.
type Defaults struct {
	Task         string
	Version      string
	Gravity      float64
	Seed         int64
	MaxSteps     int
	TicksPerStep int
	TimeStep     float64
}

func DefaultDefaults() Defaults {
	return Defaults{
		Task:         "gap",
		Version:      "v1",
		Gravity:      9.81,
		Seed:         42,
		MaxSteps:     500,
		TicksPerStep: 10,
		TimeStep:     1.0 / 60.0,
	}
}

// BroadcastFunc pushes an observation to observers, best effort. A nil or
// failing broadcast never affects reset/step correctness.
type BroadcastFunc func(sessionID string, step int, done bool, obs task.Observation)

type Options struct {
	Log          *log.Logger
	Defaults     Defaults
	StepSinks    []StepSink
	EpisodeSinks []EpisodeSink
	Broadcast    BroadcastFunc

	// IdleTTL evicts sessions untouched for this long. Zero disables the
	// janitor.
	IdleTTL time.Duration
}

// Registry owns the session-id -> session mapping. It is created at service
// start; entries leave only through an explicit reset replacing them, idle
// eviction, or Close.
type Registry struct {
	log   *log.Logger
	tasks *task.Registry
	opts  Options

	mu       sync.Mutex
	sessions map[string]*Session

	quit chan struct{}
	wg   sync.WaitGroup
}

func NewRegistry(tasks *task.Registry, opts Options) *Registry {
	if opts.Log == nil {
		opts.Log = log.Default()
	}
	if opts.Defaults == (Defaults{}) {
		opts.Defaults = DefaultDefaults()
	}
	r := &Registry{
		log:      opts.Log,
		tasks:    tasks,
		opts:     opts,
		sessions: make(map[string]*Session),
		quit:     make(chan struct{}),
	}
	if opts.IdleTTL > 0 {
		r.wg.Add(1)
		go r.janitor(opts.IdleTTL)
	}
	return r
}

// mergeConfig lays the caller's overrides over the defaults. Validation
// happens before any world or session is created.
func (r *Registry) mergeConfig(rc protocol.ResetConfig) (task.Config, error) {
	d := r.opts.Defaults
	cfg := task.Config{
		Task:         d.Task,
		Version:      d.Version,
		Gravity:      d.Gravity,
		Seed:         d.Seed,
		MaxSteps:     d.MaxSteps,
		TicksPerStep: d.TicksPerStep,
		TimeStep:     d.TimeStep,

		LandingZoneStart:  rc.LandingZoneStart,
		LandingZoneEnd:    rc.LandingZoneEnd,
		GoalPlatformWidth: rc.GoalPlatformWidth,
		BasketDistance:    rc.BasketDistance,
	}
	if rc.Task != "" {
		cfg.Task = rc.Task
	}
	if rc.TaskVersion != "" {
		cfg.Version = rc.TaskVersion
	}
	if rc.Gravity != nil {
		cfg.Gravity = *rc.Gravity
	}
	if rc.Seed != nil {
		cfg.Seed = *rc.Seed
	}
	if rc.MaxSteps != nil {
		cfg.MaxSteps = *rc.MaxSteps
	}
	if rc.TicksPerStep != nil {
		cfg.TicksPerStep = *rc.TicksPerStep
	}
	if rc.TimeStep != nil {
		cfg.TimeStep = *rc.TimeStep
	}

	if !r.tasks.Has(cfg.Task, cfg.Version) {
		return cfg, &ConfigError{Msg: fmt.Sprintf("unknown task %q version %q", cfg.Task, cfg.Version)}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, &ConfigError{Msg: err.Error()}
	}
	return cfg, nil
}

// Reset builds a fresh world and task for the identifier, unconditionally
// discarding any prior session under it. Returns the (possibly generated)
// session id and the initial observation.
func (r *Registry) Reset(id string, rc protocol.ResetConfig) (string, task.Observation, error) {
	cfg, err := r.mergeConfig(rc)
	if err != nil {
		return "", nil, err
	}
	if id == "" {
		id = uuid.NewString()
	}

	engine := rigid.New(rigid.Config{TimeStep: cfg.TimeStep})
	world := physics.NewAdapter(engine, cfg.Gravity, cfg.TimeStep)
	tk, err := r.tasks.New(world, cfg)
	if err != nil {
		return "", nil, &ConfigError{Msg: err.Error()}
	}
	if err := tk.Setup(); err != nil {
		return "", nil, fmt.Errorf("setup %s/%s: %w", cfg.Task, cfg.Version, err)
	}

	s := newSession(id, cfg, world, tk)
	obs := tk.Observation()
	s.lastObs = obs

	r.mu.Lock()
	if old, ok := r.sessions[id]; ok {
		old.stop()
	}
	r.sessions[id] = s
	r.mu.Unlock()
	go s.run()

	r.log.Printf("reset session=%s task=%s/%s seed=%d gravity=%g", id, cfg.Task, cfg.Version, cfg.Seed, cfg.Gravity)
	if r.opts.Broadcast != nil {
		r.opts.Broadcast(id, 0, false, obs)
	}
	return id, obs, nil
}

// Step routes one action to the session's worker and fans the result out to
// sinks and observers.
func (r *Registry) Step(id string, action any, scale float64) (Result, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return Result{}, fmt.Errorf("session %q: %w", id, ErrNotFound)
	}

	res, err := s.Step(action, scale)
	if err != nil {
		return Result{}, err
	}

	if res.Info.StepsBeyondDone == 0 {
		rec := StepRecord{
			Time:        time.Now().UTC(),
			SessionID:   id,
			Task:        s.cfg.Task,
			Version:     s.cfg.Version,
			Seed:        s.cfg.Seed,
			Step:        res.Info.Step,
			Action:      fmt.Sprintf("%v", action),
			Reward:      res.Reward,
			Done:        res.Done,
			Reason:      res.Info.Reason,
			Observation: res.Observation,
		}
		for _, sink := range r.opts.StepSinks {
			sink.WriteStep(rec)
		}
		if res.Done {
			ep := EpisodeRecord{
				FinishedAt:  time.Now().UTC(),
				SessionID:   id,
				Task:        s.cfg.Task,
				Version:     s.cfg.Version,
				Seed:        s.cfg.Seed,
				Steps:       res.Info.Step,
				Success:     res.Info.Success,
				Reason:      res.Info.Reason,
				TotalReward: res.Info.TotalReward,
			}
			for _, sink := range r.opts.EpisodeSinks {
				sink.WriteEpisode(ep)
			}
		}
		if r.opts.Broadcast != nil {
			r.opts.Broadcast(id, res.Info.Step, res.Done, res.Observation)
		}
	}
	return res, nil
}

func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) Tasks() *task.Registry { return r.tasks }

func (r *Registry) Defaults() Defaults { return r.opts.Defaults }

// Evict removes one session explicitly.
func (r *Registry) Evict(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return false
	}
	s.stop()
	delete(r.sessions, id)
	return true
}

func (r *Registry) janitor(ttl time.Duration) {
	defer r.wg.Done()
	tick := time.NewTicker(30 * time.Second)
	defer tick.Stop()
	for {
		select {
		case <-r.quit:
			return
		case <-tick.C:
			cutoff := time.Now().Add(-ttl)
			r.mu.Lock()
			for id, s := range r.sessions {
				if s.idleSince().Before(cutoff) {
					s.stop()
					delete(r.sessions, id)
					r.log.Printf("evicted idle session=%s", id)
				}
			}
			r.mu.Unlock()
		}
	}
}

// Close stops the janitor and tears down every session worker.
func (r *Registry) Close() {
	close(r.quit)
	r.wg.Wait()
	r.mu.Lock()
	for id, s := range r.sessions {
		s.stop()
		delete(r.sessions, id)
	}
	r.mu.Unlock()
}
