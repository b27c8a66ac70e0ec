package component

// BuildingTypeComponent marks an entity as a structure. Buildings are
// static for collision purposes and use a wider collision radius.
type BuildingTypeComponent struct {
	Type string `json:"type"`
}
