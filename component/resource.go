package component

// ResourceComponent is attached to gatherable map objects.
// Consumption is handled by the economy layer outside the core.
type ResourceComponent struct {
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
}
