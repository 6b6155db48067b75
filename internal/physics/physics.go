// Package physics defines the body-simulation seam between episode logic and
// a rigid-body backend. Tasks talk to an Adapter over named bodies; the
// backend behind it only sees primitive create/step/query calls.
package physics

import "math"

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(f float64) Vec3 { return Vec3{v.X * f, v.Y * f, v.Z * f} }

func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// PlanarLength is the horizontal (XZ) magnitude.
func (v Vec3) PlanarLength() float64 {
	return math.Hypot(v.X, v.Z)
}

func (v Vec3) PlanarDistance(o Vec3) float64 {
	return math.Hypot(v.X-o.X, v.Z-o.Z)
}

// BodyState is a point-in-time report for one named body. Orientation is a
// unit quaternion (x, y, z, w).
type BodyState struct {
	Position    Vec3
	Velocity    Vec3
	Orientation [4]float64
}

type Shape int

const (
	ShapeBox Shape = iota
	ShapeCapsule
	ShapeSphere
)

// Engine is the contract required from the rigid-body backend. Implementations
// must be deterministic for a fixed call sequence; the service layers above
// add no nondeterminism of their own.
//
// BodyState and the mutators report a second return of false for absent
// bodies. Callers treat an absent body as a fatal episode condition, not a
// backend error.
type Engine interface {
	CreateStaticBox(name string, pos, size Vec3) error
	CreateDynamicBox(name string, pos, size Vec3, mass float64) error
	CreateCapsule(name string, pos Vec3, radius, height, mass float64) error
	CreateSphere(name string, pos Vec3, radius, mass float64) error
	SetGravity(g float64)
	Step()
	BodyState(name string) (BodyState, bool)
	SetVelocity(name string, v Vec3) bool
	SetPosition(name string, p Vec3) bool
	RemoveAll()
}
