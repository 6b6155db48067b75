package session

import (
	"time"

	"gravitybench.ai/internal/sim/task"
)

// StepRecord is one row of an episode trajectory, fed to step sinks.
type StepRecord struct {
	Time        time.Time        `json:"time"`
	SessionID   string           `json:"sessionId"`
	Task        string           `json:"task"`
	Version     string           `json:"version"`
	Seed        int64            `json:"seed"`
	Step        int              `json:"step"`
	Action      string           `json:"action"`
	Reward      float64          `json:"reward"`
	Done        bool             `json:"done"`
	Reason      string           `json:"reason,omitempty"`
	Observation task.Observation `json:"observation"`
}

// EpisodeRecord summarizes a finished episode, fed to episode sinks.
type EpisodeRecord struct {
	FinishedAt  time.Time `json:"finishedAt"`
	SessionID   string    `json:"sessionId"`
	Task        string    `json:"task"`
	Version     string    `json:"version"`
	Seed        int64     `json:"seed"`
	Steps       int       `json:"steps"`
	Success     bool      `json:"success"`
	Reason      string    `json:"reason"`
	TotalReward float64   `json:"totalReward"`
}

// StepSink receives every step of every session, best effort.
type StepSink interface {
	WriteStep(StepRecord)
}

// EpisodeSink receives one record per terminated episode, best effort.
type EpisodeSink interface {
	WriteEpisode(EpisodeRecord)
}
