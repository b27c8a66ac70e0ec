package component

// RenderComponent is the model reference consumed by the rendering
// collaborator. The core only reads Scale, which drives collision radii.
type RenderComponent struct {
	Model string  `json:"model"`
	Scale float64 `json:"scale"`
}
