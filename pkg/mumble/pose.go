package mumble

// Pose is a position with its two orientation unit vectors.
type Pose struct {
	// Position in the map coordinate system, in meters.
	Position [3]float32
	// Front points out of the eyes, the "at" vector.
	Front [3]float32
	// Top points out of the top of the head, the "up" vector.
	Top [3]float32
}
