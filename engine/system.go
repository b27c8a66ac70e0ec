package engine

// System is the per-tick processing interface.
type System interface {
	// Update advances the system by dt seconds.
	Update(dt float64)

	// Priority orders systems within a tick. Lower values run first.
	Priority() int
}
