package task

import "gravitybench.ai/internal/physics"

// moveDirection maps planar movement actions onto unit vectors. Forward is
// +X, toward the gap / the basket.
func moveDirection(action string) (physics.Vec3, bool) {
	switch action {
	case "forward":
		return physics.Vec3{X: 1}, true
	case "back":
		return physics.Vec3{X: -1}, true
	case "left":
		return physics.Vec3{Z: -1}, true
	case "right":
		return physics.Vec3{Z: 1}, true
	}
	return physics.Vec3{}, false
}

// clampPlanar caps horizontal speed, leaving vertical velocity untouched.
// Applied after every action application for both task families.
func clampPlanar(v physics.Vec3, max float64) physics.Vec3 {
	speed := v.PlanarLength()
	if speed <= max || speed == 0 {
		return v
	}
	f := max / speed
	v.X *= f
	v.Z *= f
	return v
}

func vec3Slice(v physics.Vec3) []float64 {
	return []float64{v.X, v.Y, v.Z}
}
