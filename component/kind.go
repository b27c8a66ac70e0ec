package component

// Kind is a presence bitmask over component types. The world keeps one
// mask per live entity; a bit is set iff the matching typed store holds
// an entry for that entity.
type Kind uint32

const (
	KindPosition Kind = 1 << iota
	KindHealth
	KindFaction
	KindUnitType
	KindBuildingType
	KindResource
	KindRender
	KindAiming
)

// KnownKinds covers every registered component bit. Snapshot restore
// rejects masks with bits outside this set.
const KnownKinds = KindPosition | KindHealth | KindFaction | KindUnitType |
	KindBuildingType | KindResource | KindRender | KindAiming

func (k Kind) Has(bit Kind) bool {
	return k&bit != 0
}
