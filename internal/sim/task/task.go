// Package task holds the per-episode contract shared by every challenge and
// its concrete variants. A task owns mutable episode-local state, a reference
// to its simulation world, and an immutable configuration snapshot; the
// session layer drives it through Setup -> (Apply/Step)* -> CheckTermination.
package task

import "errors"

// Terminal reason tags.
const (
	ReasonReachedGoal = "reached_goal"
	ReasonInBasket    = "in_basket"
	ReasonFell        = "fell"
	ReasonFellSide    = "fell_side"
	ReasonTimeout     = "timeout"
	ReasonMissingBody = "missing_body"
)

type TerminationResult struct {
	Done    bool
	Success bool
	Reason  string
}

// Observation is assembled fresh on every call, never cached across steps.
type Observation = map[string]any

// Task is the episode contract. Setup builds the scene once. Apply is invoked
// once per physics tick with the normalized action name and the caller's
// duration scale; the session advances the world between applications.
type Task interface {
	Setup() error
	Observation() Observation
	Apply(action string, scale float64) error
	CheckTermination() TerminationResult
	Reward(done, success bool) float64
	Actions() []string
}

// ErrUnknownAction reports an action outside the task's vocabulary.
var ErrUnknownAction = errors.New("unknown action")

// Terminal reward shape shared by both task families: +1 on success, -1 on
// failure, and a small per-step cost while the episode runs.
func episodeReward(done, success bool) float64 {
	switch {
	case done && success:
		return 1.0
	case done:
		return -1.0
	default:
		return -0.01
	}
}
