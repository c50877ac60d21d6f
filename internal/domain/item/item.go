// Package item defines the item stacks players hold and use.
// This package is PURE and must NOT import any infrastructure packages.
package item

// Item categories the server knows about.
const (
	TypeNameTag  = "minecraft:name_tag"
	TypeBone     = "minecraft:bone"
	TypeWheat    = "minecraft:wheat"
	TypeSeeds    = "minecraft:wheat_seeds"
	TypeSeagrass = "minecraft:seagrass"
	TypeStick    = "minecraft:stick"
)

// Stack represents a quantity of a specific item category.
type Stack struct {
	TypeID  string `json:"type_id"`
	Amount  int    `json:"amount"`
	NameTag string `json:"name_tag,omitempty"` // Custom display name, empty when unnamed
}

// Clone returns an independent copy, nil-safe.
func (s *Stack) Clone() *Stack {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// AmountOf returns the quantity held, zero for an empty hand.
func AmountOf(s *Stack) int {
	if s == nil {
		return 0
	}
	return s.Amount
}

// IsNameTag reports whether the stack is a name tag.
func (s *Stack) IsNameTag() bool {
	return s != nil && s.TypeID == TypeNameTag
}

// IsNamed reports whether the stack carries a custom display name.
func (s *Stack) IsNamed() bool {
	return s != nil && s.NameTag != ""
}

// Definition provides metadata about an item category.
type Definition struct {
	Name      string
	Food      bool    // Feeding consumes one and speeds up growth
	GrowthMod float64 // Share of the growth duration skipped when fed
	MaxStack  int
}

// Registry contains all known items and their properties.
var Registry = map[string]Definition{
	TypeNameTag:  {Name: "Name Tag", MaxStack: 64},
	TypeBone:     {Name: "Bone", Food: true, GrowthMod: 0.1, MaxStack: 64},
	TypeWheat:    {Name: "Wheat", Food: true, GrowthMod: 0.1, MaxStack: 64},
	TypeSeeds:    {Name: "Wheat Seeds", Food: true, GrowthMod: 0.1, MaxStack: 64},
	TypeSeagrass: {Name: "Seagrass", Food: true, GrowthMod: 0.1, MaxStack: 64},
	TypeStick:    {Name: "Stick", MaxStack: 64},
}

// Get returns the definition for an item category.
func Get(typeID string) (Definition, bool) {
	def, ok := Registry[typeID]
	return def, ok
}
