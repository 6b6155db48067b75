package task

import (
	"math"
	"reflect"
	"testing"

	"gravitybench.ai/internal/physics"
	"gravitybench.ai/internal/physics/rigid"
)

func testConfig(kind, version string, seed int64) Config {
	return Config{
		Task:         kind,
		Version:      version,
		Gravity:      9.81,
		Seed:         seed,
		MaxSteps:     80,
		TicksPerStep: 10,
		TimeStep:     1.0 / 60.0,
	}
}

func newTestWorld(cfg Config) *physics.Adapter {
	engine := rigid.New(rigid.Config{TimeStep: cfg.TimeStep})
	return physics.NewAdapter(engine, cfg.Gravity, cfg.TimeStep)
}

func mustSetup(t *testing.T, kind, version string, seed int64) (Task, *physics.Adapter, Config) {
	t.Helper()
	cfg := testConfig(kind, version, seed)
	w := newTestWorld(cfg)
	tk, err := NewRegistry().New(w, cfg)
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if err := tk.Setup(); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return tk, w, cfg
}

// stepOnce mirrors the session layer's tick loop: re-apply the action every
// tick, then advance the world.
func stepOnce(t *testing.T, tk Task, w *physics.Adapter, cfg Config, action string) TerminationResult {
	t.Helper()
	for i := 0; i < cfg.TicksPerStep; i++ {
		if err := tk.Apply(action, 1.0); err != nil {
			t.Fatalf("apply %q: %v", action, err)
		}
		w.Step()
	}
	return tk.CheckTermination()
}

func TestGapSameSeedSameInitialObservation(t *testing.T) {
	for _, version := range []string{"v1", "v2"} {
		a, _, _ := mustSetup(t, "gap", version, 42)
		b, _, _ := mustSetup(t, "gap", version, 42)
		if !reflect.DeepEqual(a.Observation(), b.Observation()) {
			t.Fatalf("%s: initial observations differ for identical seed", version)
		}
	}
}

func TestGapSeedDrivesGapWidth(t *testing.T) {
	a, _, _ := mustSetup(t, "gap", "v2", 1)
	b, _, _ := mustSetup(t, "gap", "v2", 2)
	wa := a.Observation()["gapWidth"].(float64)
	wb := b.Observation()["gapWidth"].(float64)
	if wa == wb {
		t.Fatalf("different seeds produced identical gap width %v", wa)
	}
	for _, w := range []float64{wa, wb} {
		if w < 4.2 || w >= 4.8 {
			t.Fatalf("gap width %v outside 4.5 +/- 0.3", w)
		}
	}
}

func TestGapIdenticalTrajectories(t *testing.T) {
	actions := []string{"forward", "forward", "forward", "forward", "jump", "forward", "forward"}
	run := func() [][]float64 {
		tk, w, cfg := mustSetup(t, "gap", "v2", 42)
		var traj [][]float64
		for _, a := range actions {
			stepOnce(t, tk, w, cfg, a)
			traj = append(traj, tk.Observation()["agentPosition"].([]float64))
		}
		return traj
	}
	if !reflect.DeepEqual(run(), run()) {
		t.Fatalf("identical seed and actions produced diverging trajectories")
	}
}

func TestGapNeverJumpNeverCrosses(t *testing.T) {
	for _, version := range []string{"v1", "v2"} {
		tk, w, cfg := mustSetup(t, "gap", version, 42)
		gapEnd := tk.Observation()["gapEnd"].(float64)

		reached := false
		for step := 0; step < cfg.MaxSteps; step++ {
			term := stepOnce(t, tk, w, cfg, "forward")
			obs := tk.Observation()
			pos := obs["agentPosition"].([]float64)
			if obs["isGrounded"].(bool) && pos[0] >= gapEnd {
				reached = true
			}
			if term.Done {
				if term.Success {
					t.Fatalf("%s: forward-only run reported success", version)
				}
				break
			}
		}
		if reached {
			t.Fatalf("%s: agent stood on far platform without jumping", version)
		}
	}
}

func TestGapForwardAndJumpCanReachGoal(t *testing.T) {
	// The validated optimal line for the v2 geometry: run up, jump at the
	// edge, keep driving forward.
	tk, w, cfg := mustSetup(t, "gap", "v2", 42)
	var last TerminationResult
	for step := 0; step < cfg.MaxSteps; step++ {
		obs := tk.Observation()
		pos := obs["agentPosition"].([]float64)
		zone := obs["goalZone"].(map[string]float64)

		action := "forward"
		switch {
		case step == 6:
			action = "jump"
		case obs["isGrounded"].(bool) && pos[0] >= zone["minX"]:
			action = "idle"
		}
		last = stepOnce(t, tk, w, cfg, action)
		if last.Done {
			break
		}
	}
	if !last.Done || !last.Success || last.Reason != ReasonReachedGoal {
		t.Fatalf("optimal line did not reach goal: %+v (agent at %v)",
			last, tk.Observation()["agentPosition"])
	}
}

func TestGapJumpCooldownBlocksRetrigger(t *testing.T) {
	tk, w, cfg := mustSetup(t, "gap", "v2", 42)
	g := tk.(*gapTask)

	// Settle, then simulate a fresh landing.
	stepOnce(t, tk, w, cfg, "idle")
	g.jumpCooldown = g.p.cooldownTicks

	if err := tk.Apply("jump", 1.0); err != nil {
		t.Fatalf("apply: %v", err)
	}
	st, _ := w.BodyState("agent")
	if st.Velocity.Y > 0.01 {
		t.Fatalf("jump fired during cooldown: vy=%.3f", st.Velocity.Y)
	}

	g.jumpCooldown = 0
	if err := tk.Apply("jump", 1.0); err != nil {
		t.Fatalf("apply: %v", err)
	}
	st, _ = w.BodyState("agent")
	want := math.Sqrt(2 * cfg.Gravity * g.p.jumpHeight)
	if math.Abs(st.Velocity.Y-want) > want*0.35 {
		t.Fatalf("jump after cooldown gave vy=%.3f, want near %.3f", st.Velocity.Y, want)
	}
}

func TestGapComplianceStreakResetsOnViolation(t *testing.T) {
	tk, w, _ := mustSetup(t, "gap", "v2", 42)
	g := tk.(*gapTask)

	inGoal := physics.Vec3{X: (g.p.goalMinX + g.p.goalMaxX) / 2, Y: agentRestY, Z: 0}
	outside := physics.Vec3{X: g.p.goalMinX - 1.0, Y: agentRestY, Z: 0}

	place := func(p physics.Vec3) {
		w.SetPosition("agent", p)
		w.SetVelocity("agent", physics.Vec3{})
	}

	place(inGoal)
	for i := 0; i < g.p.requiredStreak-1; i++ {
		if term := tk.CheckTermination(); term.Done {
			t.Fatalf("terminated one step early: %+v", term)
		}
	}

	// One non-compliant step wipes the streak entirely.
	place(outside)
	if term := tk.CheckTermination(); term.Done {
		t.Fatalf("terminated while outside goal: %+v", term)
	}

	place(inGoal)
	for i := 0; i < g.p.requiredStreak-1; i++ {
		if term := tk.CheckTermination(); term.Done {
			t.Fatalf("streak carried over a violation: success after %d compliant steps", i+1)
		}
	}
	if term := tk.CheckTermination(); !term.Done || !term.Success || term.Reason != ReasonReachedGoal {
		t.Fatalf("expected success after full streak, got %+v", term)
	}
}

func TestGapLandingZoneOverrides(t *testing.T) {
	cfg := testConfig("gap", "v2", 42)
	start, end, width := 8.5, 10.0, 16.0
	cfg.LandingZoneStart = &start
	cfg.LandingZoneEnd = &end
	cfg.GoalPlatformWidth = &width

	w := newTestWorld(cfg)
	tk, err := NewRegistry().New(w, cfg)
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if err := tk.Setup(); err != nil {
		t.Fatalf("setup: %v", err)
	}
	zone := tk.Observation()["goalZone"].(map[string]float64)
	if zone["minX"] != start || zone["maxX"] != end {
		t.Fatalf("goal zone override not applied: %+v", zone)
	}
}

func TestGapMissingBodyTerminatesEpisode(t *testing.T) {
	tk, w, _ := mustSetup(t, "gap", "v2", 42)
	w.RemoveAll()
	if err := tk.Apply("forward", 1.0); err != nil {
		t.Fatalf("apply after body loss must not error: %v", err)
	}
	term := tk.CheckTermination()
	if !term.Done || term.Success || term.Reason != ReasonMissingBody {
		t.Fatalf("expected missing-body termination, got %+v", term)
	}
}
