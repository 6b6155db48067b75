package session

import (
	"fmt"
	"sync/atomic"
	"time"

	"gravitybench.ai/internal/physics"
	"gravitybench.ai/internal/sim/task"
)

// Result is the outcome of one step (or the idempotent echo of a finished
// episode).
type Result struct {
	Observation task.Observation
	Reward      float64
	Done        bool
	Info        Info
}

type Info struct {
	Step        int
	Success     bool
	Reason      string
	TotalReward float64

	// Counts step calls issued after the episode ended. Zero on live steps;
	// callers use it to tell the idempotent echo from a real step.
	StepsBeyondDone int
}

type stepRequest struct {
	action any
	scale  float64
	resp   chan stepReply
}

type stepReply struct {
	result Result
	err    error
}

// Session binds one episode: a private world, a task, a step counter, the
// cumulative reward, and the done flag. Each session runs a dedicated worker
// goroutine so concurrent sessions never time-slice each other's physics;
// starvation under shared stepping corrupts failure classification.
type Session struct {
	ID  string
	cfg task.Config

	world *physics.Adapter
	task  task.Task

	step        int
	totalReward float64
	done        bool
	success     bool
	reason      string
	beyondDone  int
	lastObs     task.Observation

	inbox     chan stepRequest
	quit      chan struct{}
	lastTouch atomic.Int64
}

func newSession(id string, cfg task.Config, world *physics.Adapter, tk task.Task) *Session {
	s := &Session{
		ID:    id,
		cfg:   cfg,
		world: world,
		task:  tk,
		inbox: make(chan stepRequest),
		quit:  make(chan struct{}),
	}
	s.touch()
	return s
}

func (s *Session) touch() {
	s.lastTouch.Store(time.Now().UnixNano())
}

func (s *Session) idleSince() time.Time {
	return time.Unix(0, s.lastTouch.Load())
}

// run is the session worker. All stepping happens here, one request at a
// time; a step blocks its caller until every configured tick has advanced.
func (s *Session) run() {
	for {
		select {
		case <-s.quit:
			return
		case req := <-s.inbox:
			res, err := s.handleStep(req.action, req.scale)
			req.resp <- stepReply{result: res, err: err}
		}
	}
}

// stop tears the worker down. A send that already reached the worker is
// answered before the goroutine exits; later senders observe quit.
func (s *Session) stop() {
	close(s.quit)
}

func (s *Session) handleStep(action any, scale float64) (Result, error) {
	s.touch()

	if s.done {
		// Idempotent no-op: echo the last observation, zero reward, and mark
		// how far past the end the caller has stepped.
		s.beyondDone++
		return Result{
			Observation: s.lastObs,
			Reward:      0,
			Done:        true,
			Info: Info{
				Step:            s.step,
				Success:         s.success,
				Reason:          s.reason,
				TotalReward:     s.totalReward,
				StepsBeyondDone: s.beyondDone,
			},
		}, nil
	}

	name, err := task.NormalizeAction(s.task.Actions(), action)
	if err != nil {
		return Result{}, &BadActionError{Msg: err.Error()}
	}
	if scale <= 0 || scale > 1 {
		scale = 1
	}

	// Re-apply the action every tick: the backend's contact response decays
	// velocity each tick, so a single application would be eaten by friction
	// long before the nominal action duration elapses.
	for i := 0; i < s.cfg.TicksPerStep; i++ {
		if err := s.task.Apply(name, scale); err != nil {
			return Result{}, &BadActionError{Msg: err.Error()}
		}
		s.world.Step()
	}
	s.step++

	term := s.task.CheckTermination()
	if !term.Done && s.step >= s.cfg.MaxSteps {
		// Budget exhaustion is recorded as a timeout, distinct from any
		// task-reported reason.
		term = task.TerminationResult{Done: true, Reason: task.ReasonTimeout}
	}

	reward := s.task.Reward(term.Done, term.Success)
	s.totalReward += reward
	if term.Done {
		s.done = true
		s.success = term.Success
		s.reason = term.Reason
	}

	obs := s.task.Observation()
	s.lastObs = obs

	return Result{
		Observation: obs,
		Reward:      reward,
		Done:        s.done,
		Info: Info{
			Step:        s.step,
			Success:     s.success,
			Reason:      s.reason,
			TotalReward: s.totalReward,
		},
	}, nil
}

// Step forwards one request to the session worker and blocks for the reply.
func (s *Session) Step(action any, scale float64) (Result, error) {
	req := stepRequest{action: action, scale: scale, resp: make(chan stepReply, 1)}
	select {
	case s.inbox <- req:
	case <-s.quit:
		return Result{}, fmt.Errorf("session %s: %w", s.ID, ErrNotFound)
	}
	rep := <-req.resp
	return rep.result, rep.err
}
