package physics

// Adapter owns one episode's simulation world: a gravity scalar, a fixed
// timestep, and the set of named bodies living in the backend engine. It is
// created fresh on every reset and never shared across sessions.
type Adapter struct {
	engine   Engine
	gravity  float64
	timeStep float64
}

func NewAdapter(engine Engine, gravity, timeStep float64) *Adapter {
	a := &Adapter{engine: engine, gravity: gravity, timeStep: timeStep}
	engine.SetGravity(gravity)
	return a
}

func (a *Adapter) Gravity() float64  { return a.gravity }
func (a *Adapter) TimeStep() float64 { return a.timeStep }

func (a *Adapter) SetGravity(g float64) {
	a.gravity = g
	a.engine.SetGravity(g)
}

func (a *Adapter) CreateStaticBox(name string, pos, size Vec3) error {
	return a.engine.CreateStaticBox(name, pos, size)
}

func (a *Adapter) CreateDynamicBox(name string, pos, size Vec3, mass float64) error {
	return a.engine.CreateDynamicBox(name, pos, size, mass)
}

func (a *Adapter) CreateCapsule(name string, pos Vec3, radius, height, mass float64) error {
	return a.engine.CreateCapsule(name, pos, radius, height, mass)
}

func (a *Adapter) CreateSphere(name string, pos Vec3, radius, mass float64) error {
	return a.engine.CreateSphere(name, pos, radius, mass)
}

// Step advances the backend by one fixed timestep.
func (a *Adapter) Step() {
	a.engine.Step()
}

// BodyState reports a named body, or ok=false if the body is absent.
func (a *Adapter) BodyState(name string) (BodyState, bool) {
	return a.engine.BodyState(name)
}

func (a *Adapter) SetVelocity(name string, v Vec3) bool {
	return a.engine.SetVelocity(name, v)
}

func (a *Adapter) SetPosition(name string, p Vec3) bool {
	return a.engine.SetPosition(name, p)
}

// RemoveAll tears down every body. The adapter itself stays usable; reset
// flows discard it wholesale anyway.
func (a *Adapter) RemoveAll() {
	a.engine.RemoveAll()
}
