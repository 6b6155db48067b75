package task

import (
	"fmt"
	"math"

	"gravitybench.ai/internal/physics"
)

// Gap traversal: two platforms separated by a seeded gap; the agent must
// clear the gap and hold the goal zone. v2 is the recalibrated revision:
// wider gap, jump cooldown, reduced air steering, run-up bonus, and a goal
// zone configurable independently of the platform geometry.
type gapTask struct {
	world *physics.Adapter
	cfg   Config
	rev   int
	p     gapParams

	built        bool
	streak       int
	jumpCooldown int
	wasGrounded  bool
	missingBody  bool
}

type gapParams struct {
	platformHalfW float64 // platform A half width; gap starts here
	platformHalfD float64
	gapWidth      float64 // seeded
	goalPlatformW float64
	agentStartX   float64

	goalMinX, goalMaxX float64
	goalMinZ, goalMaxZ float64

	moveSpeed     float64
	maxSpeed      float64
	jumpHeight    float64
	airControl    float64 // steering authority while airborne (v2 < 1)
	runUpBonus    float64
	cooldownTicks int

	requiredStreak int
}

const (
	platformThickness = 0.5
	agentRadius       = 0.25
	agentHeight       = 0.5
	agentRestY        = agentHeight/2 + agentRadius // capsule center on a y=0 surface
	floorY            = -2.0
	groundedVyEps     = 0.15
	groundedBandY     = 0.12
	gapRequiredStreak = 3
)

func newGap(w *physics.Adapter, cfg Config, rev int) Task {
	rng := NewRand(cfg.Seed)
	t := &gapTask{world: w, cfg: cfg, rev: rev}

	if rev >= 2 {
		t.p = gapParams{
			platformHalfW:  2.0,
			platformHalfD:  1.0,
			gapWidth:       rng.Jitter(4.5, 0.3),
			goalPlatformW:  4.0,
			agentStartX:    -1.33,
			moveSpeed:      3.0,
			maxSpeed:       4.0,
			jumpHeight:     1.2,
			airControl:     0.3,
			runUpBonus:     1.3,
			cooldownTicks:  20,
			requiredStreak: gapRequiredStreak,
		}
	} else {
		t.p = gapParams{
			platformHalfW:  2.5,
			platformHalfD:  2.0,
			gapWidth:       rng.Jitter(3.0, 0.5),
			goalPlatformW:  5.0,
			agentStartX:    -1.25,
			moveSpeed:      3.0,
			maxSpeed:       3.5,
			jumpHeight:     1.5,
			airControl:     1.0,
			runUpBonus:     1.0,
			requiredStreak: gapRequiredStreak,
		}
	}

	if cfg.GoalPlatformWidth != nil {
		t.p.goalPlatformW = *cfg.GoalPlatformWidth
	}

	gapEnd := t.p.platformHalfW + t.p.gapWidth
	if rev >= 2 {
		t.p.goalMinX = 7.3
		t.p.goalMaxX = 9.7
		t.p.goalMinZ = -0.7
		t.p.goalMaxZ = 0.7
	} else {
		t.p.goalMinX = gapEnd + 0.5
		t.p.goalMaxX = gapEnd + 3.5
		t.p.goalMinZ = -t.p.platformHalfD
		t.p.goalMaxZ = t.p.platformHalfD
	}
	if cfg.LandingZoneStart != nil {
		t.p.goalMinX = *cfg.LandingZoneStart
	}
	if cfg.LandingZoneEnd != nil {
		t.p.goalMaxX = *cfg.LandingZoneEnd
	}
	return t
}

func (t *gapTask) Actions() []string { return GapActions }

func (t *gapTask) Setup() error {
	if t.built {
		return nil
	}
	t.built = true

	t.world.SetGravity(t.cfg.Gravity)

	gapEnd := t.p.platformHalfW + t.p.gapWidth
	startSize := physics.Vec3{X: 2 * t.p.platformHalfW, Y: platformThickness, Z: 2 * t.p.platformHalfD}
	if err := t.world.CreateStaticBox("platform_start",
		physics.Vec3{X: 0, Y: -platformThickness / 2, Z: 0}, startSize); err != nil {
		return fmt.Errorf("platform_start: %w", err)
	}
	goalSize := physics.Vec3{X: t.p.goalPlatformW, Y: platformThickness, Z: 2 * t.p.platformHalfD}
	if err := t.world.CreateStaticBox("platform_goal",
		physics.Vec3{X: gapEnd + t.p.goalPlatformW/2, Y: -platformThickness / 2, Z: 0}, goalSize); err != nil {
		return fmt.Errorf("platform_goal: %w", err)
	}
	if err := t.world.CreateCapsule("agent",
		physics.Vec3{X: t.p.agentStartX, Y: agentRestY, Z: 0}, agentRadius, agentHeight, 1.0); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	t.wasGrounded = true
	return nil
}

func (t *gapTask) isGrounded(st physics.BodyState) bool {
	return math.Abs(st.Velocity.Y) < groundedVyEps &&
		math.Abs(st.Position.Y-agentRestY) < groundedBandY
}

func (t *gapTask) Apply(action string, scale float64) error {
	st, ok := t.world.BodyState("agent")
	if !ok {
		t.missingBody = true
		return nil
	}

	grounded := t.isGrounded(st)
	if t.rev >= 2 {
		if grounded && !t.wasGrounded {
			// Just landed: jumping is blocked for a fixed interval.
			t.jumpCooldown = t.p.cooldownTicks
		} else if t.jumpCooldown > 0 {
			t.jumpCooldown--
		}
	}
	t.wasGrounded = grounded

	vel := st.Velocity
	dir, isMove := moveDirection(action)
	switch {
	case isMove:
		speed := t.p.moveSpeed * scale
		if grounded || t.rev == 1 {
			vel.X = dir.X * speed
			vel.Z = dir.Z * speed
		} else {
			// Airborne steering has reduced authority but accumulates, so a
			// committed run-up can still gain speed mid-flight.
			vel.X += dir.X * speed * t.p.airControl
			vel.Z += dir.Z * speed * t.p.airControl
		}
	case action == "jump":
		canJump := grounded && (t.rev == 1 || t.jumpCooldown == 0)
		if canJump {
			v := math.Sqrt(2 * t.cfg.Gravity * t.p.jumpHeight)
			if t.rev >= 2 && st.Velocity.PlanarLength() > t.p.moveSpeed/2 {
				v *= t.p.runUpBonus
			}
			vel.Y = v
		}
	case action == "idle":
		// Nothing; friction and gravity do their work.
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	vel = clampPlanar(vel, t.p.maxSpeed)
	t.world.SetVelocity("agent", vel)
	return nil
}

func (t *gapTask) CheckTermination() TerminationResult {
	if t.missingBody {
		return TerminationResult{Done: true, Reason: ReasonMissingBody}
	}
	st, ok := t.world.BodyState("agent")
	if !ok {
		t.missingBody = true
		return TerminationResult{Done: true, Reason: ReasonMissingBody}
	}

	if st.Position.Y < floorY {
		return TerminationResult{Done: true, Reason: ReasonFell}
	}
	if t.rev >= 2 && math.Abs(st.Position.Z) > t.p.platformHalfD {
		return TerminationResult{Done: true, Reason: ReasonFellSide}
	}

	inGoal := st.Position.X >= t.p.goalMinX && st.Position.X <= t.p.goalMaxX &&
		st.Position.Z >= t.p.goalMinZ && st.Position.Z <= t.p.goalMaxZ &&
		t.isGrounded(st)
	if inGoal {
		t.streak++
	} else {
		t.streak = 0
	}
	if t.streak >= t.p.requiredStreak {
		return TerminationResult{Done: true, Success: true, Reason: ReasonReachedGoal}
	}
	return TerminationResult{}
}

func (t *gapTask) Reward(done, success bool) float64 {
	return episodeReward(done, success)
}

func (t *gapTask) Observation() Observation {
	st, ok := t.world.BodyState("agent")
	if !ok {
		t.missingBody = true
		st = physics.BodyState{}
	}
	gapEnd := t.p.platformHalfW + t.p.gapWidth
	obs := Observation{
		"agentPosition": vec3Slice(st.Position),
		"agentVelocity": vec3Slice(st.Velocity),
		"gapStart":      t.p.platformHalfW,
		"gapEnd":        gapEnd,
		"gapWidth":      t.p.gapWidth,
		"goalZone": map[string]float64{
			"minX": t.p.goalMinX, "maxX": t.p.goalMaxX,
			"minZ": t.p.goalMinZ, "maxZ": t.p.goalMaxZ,
		},
		"gravity":    t.cfg.Gravity,
		"isGrounded": ok && t.isGrounded(st),
		"actions":    GapActions,
	}
	if t.rev >= 2 {
		obs["jumpCooldown"] = t.jumpCooldown
	}
	return obs
}
