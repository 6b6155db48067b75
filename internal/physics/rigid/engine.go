// Package rigid is the built-in rigid-body backend: semi-implicit Euler
// integration over a fixed timestep with axis-aligned contact resolution.
// It is purely computational and fully deterministic for a fixed call
// sequence, which is what the episode layer's reproducibility tests rely on.
package rigid

import (
	"fmt"

	"gravitybench.ai/internal/physics"
)

type body struct {
	name   string
	shape  physics.Shape
	pos    physics.Vec3
	vel    physics.Vec3
	half   physics.Vec3 // collision AABB half extents
	mass   float64
	static bool
}

type Config struct {
	TimeStep float64

	// ContactFriction is the per-tick horizontal velocity decay applied while
	// a dynamic body rests on a static one. It is deliberately strong: motion
	// is sustained by re-applying the action every tick, not by coasting.
	ContactFriction float64

	// RestThreshold zeroes residual horizontal speed below this magnitude so
	// settled bodies actually settle.
	RestThreshold float64
}

func (c *Config) applyDefaults() {
	if c.TimeStep <= 0 {
		c.TimeStep = 1.0 / 60.0
	}
	if c.ContactFriction <= 0 {
		c.ContactFriction = 0.35
	}
	if c.RestThreshold <= 0 {
		c.RestThreshold = 0.05
	}
}

type Engine struct {
	cfg     Config
	gravity float64

	// Insertion order, not a map, so stepping is deterministic.
	bodies []*body
	index  map[string]int
}

func New(cfg Config) *Engine {
	cfg.applyDefaults()
	return &Engine{
		cfg:   cfg,
		index: make(map[string]int),
	}
}

func (e *Engine) add(b *body) error {
	if _, exists := e.index[b.name]; exists {
		return fmt.Errorf("body %q already exists", b.name)
	}
	e.index[b.name] = len(e.bodies)
	e.bodies = append(e.bodies, b)
	return nil
}

func (e *Engine) CreateStaticBox(name string, pos, size physics.Vec3) error {
	return e.add(&body{
		name:   name,
		shape:  physics.ShapeBox,
		pos:    pos,
		half:   size.Scale(0.5),
		static: true,
	})
}

func (e *Engine) CreateDynamicBox(name string, pos, size physics.Vec3, mass float64) error {
	if mass <= 0 {
		return e.CreateStaticBox(name, pos, size)
	}
	return e.add(&body{
		name:  name,
		shape: physics.ShapeBox,
		pos:   pos,
		half:  size.Scale(0.5),
		mass:  mass,
	})
}

// Capsules and spheres collide by their bounding box. Coarse, but contact
// here only ever means "standing on a flat top" or "pressed against a flat
// side", where the AABB answer matches the exact one.
func (e *Engine) CreateCapsule(name string, pos physics.Vec3, radius, height, mass float64) error {
	return e.add(&body{
		name:  name,
		shape: physics.ShapeCapsule,
		pos:   pos,
		half:  physics.Vec3{X: radius, Y: height/2 + radius, Z: radius},
		mass:  mass,
	})
}

func (e *Engine) CreateSphere(name string, pos physics.Vec3, radius, mass float64) error {
	return e.add(&body{
		name:  name,
		shape: physics.ShapeSphere,
		pos:   pos,
		half:  physics.Vec3{X: radius, Y: radius, Z: radius},
		mass:  mass,
	})
}

func (e *Engine) SetGravity(g float64) { e.gravity = g }

// Step advances one fixed timestep: integrate dynamic bodies, then resolve
// penetration against static bodies along the axis of least overlap.
// Dynamic-dynamic contact is not modeled; the episode layer pins or separates
// the few dynamic bodies it owns.
func (e *Engine) Step() {
	dt := e.cfg.TimeStep
	for _, b := range e.bodies {
		if b.static {
			continue
		}
		b.vel.Y -= e.gravity * dt
		b.pos = b.pos.Add(b.vel.Scale(dt))

		for _, s := range e.bodies {
			if !s.static {
				continue
			}
			e.resolve(b, s)
		}
	}
}

// resolve pushes dynamic body b out of static body s along the axis of least
// penetration and kills the velocity component into the contact.
func (e *Engine) resolve(b, s *body) {
	dx := b.pos.X - s.pos.X
	dy := b.pos.Y - s.pos.Y
	dz := b.pos.Z - s.pos.Z

	px := b.half.X + s.half.X - abs(dx)
	py := b.half.Y + s.half.Y - abs(dy)
	pz := b.half.Z + s.half.Z - abs(dz)
	if px <= 0 || py <= 0 || pz <= 0 {
		return
	}

	switch {
	case py <= px && py <= pz:
		if dy >= 0 {
			// Landed on top: support the body and apply contact friction.
			b.pos.Y += py
			if b.vel.Y < 0 {
				b.vel.Y = 0
			}
			b.vel.X *= 1 - e.cfg.ContactFriction
			b.vel.Z *= 1 - e.cfg.ContactFriction
			if b.vel.PlanarLength() < e.cfg.RestThreshold {
				b.vel.X = 0
				b.vel.Z = 0
			}
		} else {
			b.pos.Y -= py
			if b.vel.Y > 0 {
				b.vel.Y = 0
			}
		}
	case px <= pz:
		if dx >= 0 {
			b.pos.X += px
			if b.vel.X < 0 {
				b.vel.X = 0
			}
		} else {
			b.pos.X -= px
			if b.vel.X > 0 {
				b.vel.X = 0
			}
		}
	default:
		if dz >= 0 {
			b.pos.Z += pz
			if b.vel.Z < 0 {
				b.vel.Z = 0
			}
		} else {
			b.pos.Z -= pz
			if b.vel.Z > 0 {
				b.vel.Z = 0
			}
		}
	}
}

func (e *Engine) BodyState(name string) (physics.BodyState, bool) {
	i, ok := e.index[name]
	if !ok {
		return physics.BodyState{}, false
	}
	b := e.bodies[i]
	return physics.BodyState{
		Position:    b.pos,
		Velocity:    b.vel,
		Orientation: [4]float64{0, 0, 0, 1},
	}, true
}

func (e *Engine) SetVelocity(name string, v physics.Vec3) bool {
	i, ok := e.index[name]
	if !ok || e.bodies[i].static {
		return false
	}
	e.bodies[i].vel = v
	return true
}

func (e *Engine) SetPosition(name string, p physics.Vec3) bool {
	i, ok := e.index[name]
	if !ok {
		return false
	}
	e.bodies[i].pos = p
	return true
}

func (e *Engine) RemoveAll() {
	e.bodies = nil
	e.index = make(map[string]int)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
