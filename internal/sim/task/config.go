package task

import "fmt"

// Config is the merged, validated episode configuration. It is snapshotted
// into the task at construction and never mutated afterwards.
type Config struct {
	Task         string
	Version      string
	Gravity      float64
	Seed         int64
	MaxSteps     int
	TicksPerStep int
	TimeStep     float64

	// Gap v2 landing-zone experiment overrides. Nil means task default.
	LandingZoneStart  *float64
	LandingZoneEnd    *float64
	GoalPlatformWidth *float64

	// Throw override: base distance before seeded jitter.
	BasketDistance *float64
}

// Validate checks numeric parameters. Task/version existence is checked by
// the registry so an unknown kind fails before any world is built.
func (c Config) Validate() error {
	if c.Gravity <= 0 {
		return fmt.Errorf("gravity must be > 0, got %g", c.Gravity)
	}
	if c.MaxSteps <= 0 {
		return fmt.Errorf("maxSteps must be > 0, got %d", c.MaxSteps)
	}
	if c.TicksPerStep <= 0 {
		return fmt.Errorf("ticksPerStep must be > 0, got %d", c.TicksPerStep)
	}
	if c.TimeStep <= 0 {
		return fmt.Errorf("timeStep must be > 0, got %g", c.TimeStep)
	}
	if c.GoalPlatformWidth != nil && *c.GoalPlatformWidth <= 0 {
		return fmt.Errorf("goalPlatformWidth must be > 0, got %g", *c.GoalPlatformWidth)
	}
	if c.BasketDistance != nil && *c.BasketDistance <= 0 {
		return fmt.Errorf("basketDistance must be > 0, got %g", *c.BasketDistance)
	}
	if c.LandingZoneStart != nil && c.LandingZoneEnd != nil && *c.LandingZoneEnd <= *c.LandingZoneStart {
		return fmt.Errorf("landing zone end %g not after start %g", *c.LandingZoneEnd, *c.LandingZoneStart)
	}
	return nil
}
