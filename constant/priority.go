package constant

// System priorities. The tick order is load-bearing: combat consumes
// movement state from this tick, AI reads both, collision re-indexes
// after all movement has settled.
const (
	PriorityMovement  = 10
	PriorityCombat    = 20
	PriorityAI        = 30
	PrioritySpawn     = 40
	PriorityCollision = 50
)
