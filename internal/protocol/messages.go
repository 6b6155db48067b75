package protocol

// Observation is a task-specific snapshot assembled fresh for every response.
type Observation map[string]any

// POST /reset (client -> server)
type ResetRequest struct {
	SessionID string      `json:"sessionId"`
	Config    ResetConfig `json:"config"`
}

// ResetConfig carries the caller's overrides. Pointer fields distinguish
// "absent" from zero so the merge over defaults stays explicit.
type ResetConfig struct {
	Task         string   `json:"task,omitempty"`
	TaskVersion  string   `json:"taskVersion,omitempty"`
	Gravity      *float64 `json:"gravity,omitempty"`
	Seed         *int64   `json:"seed,omitempty"`
	MaxSteps     *int     `json:"maxSteps,omitempty"`
	TicksPerStep *int     `json:"ticksPerStep,omitempty"`
	TimeStep     *float64 `json:"timeStep,omitempty"`

	// Gap v2 landing-zone experiment overrides.
	LandingZoneStart  *float64 `json:"landingZoneStart,omitempty"`
	LandingZoneEnd    *float64 `json:"landingZoneEnd,omitempty"`
	GoalPlatformWidth *float64 `json:"goalPlatformWidth,omitempty"`

	// Throw override.
	BasketDistance *float64 `json:"basketDistance,omitempty"`
}

type ResetResponse struct {
	Success     bool        `json:"success"`
	SessionID   string      `json:"sessionId,omitempty"`
	Observation Observation `json:"observation,omitempty"`
	Error       string      `json:"error,omitempty"`
	Code        string      `json:"code,omitempty"`
}

// POST /step (client -> server). Action is a name or a numeric index into the
// task's fixed action ordering.
type StepRequest struct {
	SessionID     string   `json:"sessionId"`
	Action        any      `json:"action"`
	DurationScale *float64 `json:"durationScale,omitempty"`
}

type StepResponse struct {
	Success     bool        `json:"success"`
	Observation Observation `json:"observation,omitempty"`
	Reward      float64     `json:"reward"`
	Done        bool        `json:"done"`
	Info        *StepInfo   `json:"info,omitempty"`
	Error       string      `json:"error,omitempty"`
	Code        string      `json:"code,omitempty"`
}

type StepInfo struct {
	Step        int     `json:"step"`
	TaskSuccess bool    `json:"success"`
	Reason      string  `json:"reason,omitempty"`
	TotalReward float64 `json:"totalReward"`

	// Set on idempotent steps issued after the episode already ended.
	StepsBeyondDone int `json:"stepsBeyondDone,omitempty"`
}

// GET /info
type InfoResponse struct {
	ProtocolVersion string       `json:"protocol_version"`
	Tasks           []TaskInfo   `json:"tasks"`
	Defaults        InfoDefaults `json:"defaults"`
}

type TaskInfo struct {
	Task     string   `json:"task"`
	Versions []string `json:"versions"`
	Actions  []string `json:"actions"`
}

type InfoDefaults struct {
	Gravity      float64 `json:"gravity"`
	MaxSteps     int     `json:"maxSteps"`
	TicksPerStep int     `json:"ticksPerStep"`
	TimeStep     float64 `json:"timeStep"`
}

// GET /health
type HealthResponse struct {
	Status       string `json:"status"`
	LiveSessions int    `json:"liveSessions"`
	UptimeSec    int64  `json:"uptimeSec"`
}

// SUBSCRIBE (observer -> server)
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	SessionID       string `json:"session_id"`
}

// OBS (server -> observer), pushed best effort after every step and reset.
type ObsPush struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	Step            int         `json:"step"`
	Done            bool        `json:"done"`
	Observation     Observation `json:"observation"`
}
