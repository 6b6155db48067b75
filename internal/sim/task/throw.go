package task

import (
	"fmt"
	"math"

	"gravitybench.ai/internal/physics"
)

// Throw manipulation: pick up a block and land it inside an elevated basket
// assembled from five static panels. v2 is the recalibrated revision: 45
// degree launch angle, wider and lower basket, lighter block, longer pickup
// reach.
type throwTask struct {
	world *physics.Adapter
	cfg   Config
	rev   int
	p     throwParams

	built       bool
	holding     bool
	streak      int
	missingBody bool
}

type throwStrength struct {
	name  string
	speed float64
}

type throwParams struct {
	basketX     float64 // seeded center
	interiorW   float64 // interior width along x and z
	wallHeight  float64
	basketFloor float64 // interior floor elevation
	panelThick  float64

	blockSize    float64
	blockMass    float64
	pickupRadius float64
	launchAngle  float64 // radians
	strengths    []throwStrength

	agentStartX float64
	blockStartX float64
	moveSpeed   float64
	maxSpeed    float64

	requiredStreak int
}

const (
	throwRestSpeed      = 0.25
	throwRequiredStreak = 3
)

// holdOffset pins the held block to a fixed point in front of the agent.
var holdOffset = physics.Vec3{X: 0.35, Y: 0.55, Z: 0}

func newThrow(w *physics.Adapter, cfg Config, rev int) Task {
	rng := NewRand(cfg.Seed)
	t := &throwTask{world: w, cfg: cfg, rev: rev}

	baseDist := 6.0
	if cfg.BasketDistance != nil {
		baseDist = *cfg.BasketDistance
	}

	if rev >= 2 {
		t.p = throwParams{
			basketX:     rng.Jitter(baseDist, 1.0),
			interiorW:   1.8,
			wallHeight:  0.8,
			basketFloor: 0.8,
			panelThick:  0.1,

			blockSize:    0.3,
			blockMass:    0.5,
			pickupRadius: 1.5,
			launchAngle:  45 * math.Pi / 180,
			strengths: []throwStrength{
				{"throw_weak", 4.0},
				{"throw_medium", 6.0},
				{"throw_strong", 8.5},
			},

			agentStartX:    -2.0,
			blockStartX:    -1.5,
			moveSpeed:      3.0,
			maxSpeed:       3.5,
			requiredStreak: throwRequiredStreak,
		}
	} else {
		t.p = throwParams{
			basketX:     rng.Jitter(baseDist, 1.0),
			interiorW:   1.2,
			wallHeight:  0.8,
			basketFloor: 1.5,
			panelThick:  0.1,

			blockSize:    0.3,
			blockMass:    1.0,
			pickupRadius: 1.0,
			launchAngle:  60 * math.Pi / 180,
			strengths: []throwStrength{
				{"throw_weak", 4.8},
				{"throw_medium", 6.8},
				{"throw_strong", 8.2},
			},

			agentStartX:    -2.0,
			blockStartX:    -1.5,
			moveSpeed:      3.0,
			maxSpeed:       3.5,
			requiredStreak: throwRequiredStreak,
		}
	}
	return t
}

func (t *throwTask) Actions() []string { return ThrowActions }

// Interior bounds derived analytically from panel placement and thickness.
func (t *throwTask) interior() (minX, maxX, minY, maxY, minZ, maxZ float64) {
	half := t.p.interiorW / 2
	return t.p.basketX - half, t.p.basketX + half,
		t.p.basketFloor, t.p.basketFloor + t.p.wallHeight,
		-half, half
}

func (t *throwTask) Setup() error {
	if t.built {
		return nil
	}
	t.built = true

	t.world.SetGravity(t.cfg.Gravity)

	if err := t.world.CreateStaticBox("platform",
		physics.Vec3{X: 3, Y: -platformThickness / 2, Z: 0},
		physics.Vec3{X: 16, Y: platformThickness, Z: 8}); err != nil {
		return fmt.Errorf("platform: %w", err)
	}
	if err := t.world.CreateCapsule("agent",
		physics.Vec3{X: t.p.agentStartX, Y: agentRestY, Z: 0}, agentRadius, agentHeight, 1.0); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	if err := t.world.CreateDynamicBox("block",
		physics.Vec3{X: t.p.blockStartX, Y: t.p.blockSize / 2, Z: 0},
		physics.Vec3{X: t.p.blockSize, Y: t.p.blockSize, Z: t.p.blockSize},
		t.p.blockMass); err != nil {
		return fmt.Errorf("block: %w", err)
	}
	return t.buildBasket()
}

// buildBasket assembles five static panels: floor plus four walls.
func (t *throwTask) buildBasket() error {
	w := t.p.interiorW
	th := t.p.panelThick
	h := t.p.wallHeight
	bx := t.p.basketX
	fy := t.p.basketFloor

	outer := w + 2*th
	panels := []struct {
		name string
		pos  physics.Vec3
		size physics.Vec3
	}{
		{"basket_floor", physics.Vec3{X: bx, Y: fy - th/2, Z: 0}, physics.Vec3{X: outer, Y: th, Z: outer}},
		{"basket_wall_near", physics.Vec3{X: bx - w/2 - th/2, Y: fy + h/2, Z: 0}, physics.Vec3{X: th, Y: h, Z: outer}},
		{"basket_wall_far", physics.Vec3{X: bx + w/2 + th/2, Y: fy + h/2, Z: 0}, physics.Vec3{X: th, Y: h, Z: outer}},
		{"basket_wall_left", physics.Vec3{X: bx, Y: fy + h/2, Z: -w/2 - th/2}, physics.Vec3{X: outer, Y: h, Z: th}},
		{"basket_wall_right", physics.Vec3{X: bx, Y: fy + h/2, Z: w/2 + th/2}, physics.Vec3{X: outer, Y: h, Z: th}},
	}
	for _, p := range panels {
		if err := t.world.CreateStaticBox(p.name, p.pos, p.size); err != nil {
			return fmt.Errorf("%s: %w", p.name, err)
		}
	}
	return nil
}

func (t *throwTask) isGrounded(st physics.BodyState) bool {
	return math.Abs(st.Velocity.Y) < groundedVyEps &&
		math.Abs(st.Position.Y-agentRestY) < groundedBandY
}

func (t *throwTask) Apply(action string, scale float64) error {
	agent, ok := t.world.BodyState("agent")
	if !ok {
		t.missingBody = true
		return nil
	}
	block, ok := t.world.BodyState("block")
	if !ok {
		t.missingBody = true
		return nil
	}

	grounded := t.isGrounded(agent)
	vel := agent.Velocity
	dir, isMove := moveDirection(action)
	switch {
	case isMove:
		speed := t.p.moveSpeed * scale
		if grounded {
			vel.X = dir.X * speed
			vel.Z = dir.Z * speed
		}
	case action == "pick":
		if !t.holding && agent.Position.PlanarDistance(block.Position) <= t.p.pickupRadius {
			t.holding = true
		}
	case action == "drop":
		if t.holding {
			t.holding = false
			t.world.SetPosition("block", agent.Position.Add(physics.Vec3{X: 0.4, Y: 0, Z: 0}))
			t.world.SetVelocity("block", physics.Vec3{})
		}
	case action == "throw_weak" || action == "throw_medium" || action == "throw_strong":
		if t.holding {
			t.holding = false
			t.launch(action, agent)
		}
	case action == "idle":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	vel = clampPlanar(vel, t.p.maxSpeed)
	t.world.SetVelocity("agent", vel)

	// Positional pinning, not a joint: while held, the block is clamped to a
	// fixed offset from the agent on every tick and its velocity zeroed.
	if t.holding {
		agent, ok = t.world.BodyState("agent")
		if !ok {
			t.missingBody = true
			return nil
		}
		t.world.SetPosition("block", agent.Position.Add(holdOffset))
		t.world.SetVelocity("block", physics.Vec3{})
	}
	return nil
}

// launch releases the block toward the basket center: fixed velocity
// magnitude from the strength table, planar auto-aim, launch-angle
// decomposition (v cos theta horizontal, v sin theta vertical).
func (t *throwTask) launch(strength string, agent physics.BodyState) {
	speed := 0.0
	for _, s := range t.p.strengths {
		if s.name == strength {
			speed = s.speed
			break
		}
	}

	release := agent.Position.Add(holdOffset)
	basket := physics.Vec3{X: t.p.basketX, Y: t.p.basketFloor, Z: 0}
	dx := basket.X - release.X
	dz := basket.Z - release.Z
	planar := math.Hypot(dx, dz)
	ux, uz := 1.0, 0.0
	if planar > 1e-9 {
		ux, uz = dx/planar, dz/planar
	}

	cos := math.Cos(t.p.launchAngle)
	sin := math.Sin(t.p.launchAngle)
	t.world.SetPosition("block", release)
	t.world.SetVelocity("block", physics.Vec3{
		X: speed * cos * ux,
		Y: speed * sin,
		Z: speed * cos * uz,
	})
}

func (t *throwTask) CheckTermination() TerminationResult {
	if t.missingBody {
		return TerminationResult{Done: true, Reason: ReasonMissingBody}
	}
	agent, okA := t.world.BodyState("agent")
	block, okB := t.world.BodyState("block")
	if !okA || !okB {
		t.missingBody = true
		return TerminationResult{Done: true, Reason: ReasonMissingBody}
	}

	if agent.Position.Y < floorY || block.Position.Y < floorY {
		return TerminationResult{Done: true, Reason: ReasonFell}
	}

	minX, maxX, minY, maxY, minZ, maxZ := t.interior()
	inBasket := !t.holding &&
		block.Position.X >= minX && block.Position.X <= maxX &&
		block.Position.Y >= minY && block.Position.Y <= maxY &&
		block.Position.Z >= minZ && block.Position.Z <= maxZ &&
		block.Velocity.Length() < throwRestSpeed
	if inBasket {
		t.streak++
	} else {
		t.streak = 0
	}
	if t.streak >= t.p.requiredStreak {
		return TerminationResult{Done: true, Success: true, Reason: ReasonInBasket}
	}
	return TerminationResult{}
}

func (t *throwTask) Reward(done, success bool) float64 {
	return episodeReward(done, success)
}

// optimalStrength picks the table entry whose analytic projectile range
// R = v^2 sin(2 theta) / g is closest to the current basket distance.
func (t *throwTask) optimalStrength(planarDist float64) string {
	best := ""
	bestErr := math.Inf(1)
	for _, s := range t.p.strengths {
		r := s.speed * s.speed * math.Sin(2*t.p.launchAngle) / t.cfg.Gravity
		if e := math.Abs(r - planarDist); e < bestErr {
			bestErr = e
			best = s.name
		}
	}
	return best
}

func (t *throwTask) Observation() Observation {
	agent, okA := t.world.BodyState("agent")
	block, okB := t.world.BodyState("block")
	if !okA || !okB {
		t.missingBody = true
	}

	minX, maxX, minY, maxY, minZ, maxZ := t.interior()
	basketCenter := physics.Vec3{X: t.p.basketX, Y: t.p.basketFloor, Z: 0}
	dist := agent.Position.PlanarDistance(basketCenter)

	return Observation{
		"agentPosition": vec3Slice(agent.Position),
		"agentVelocity": vec3Slice(agent.Velocity),
		"blockPosition": vec3Slice(block.Position),
		"blockVelocity": vec3Slice(block.Velocity),
		"holdingBlock":  t.holding,
		"basketPosition": []float64{
			t.p.basketX, t.p.basketFloor, 0,
		},
		"basketBounds": map[string]float64{
			"minX": minX, "maxX": maxX,
			"minY": minY, "maxY": maxY,
			"minZ": minZ, "maxZ": maxZ,
		},
		"distanceToBlock":      agent.Position.PlanarDistance(block.Position),
		"distanceToBasket":     dist,
		"optimalThrowStrength": t.optimalStrength(dist),
		"pickupRadius":         t.p.pickupRadius,
		"gravity":              t.cfg.Gravity,
		"isGrounded":           okA && t.isGrounded(agent),
		"actions":              ThrowActions,
	}
}
