package model

// ContainerNode is one physical item instance. It may hold nested items through
// equipment slots and/or a sub-inventory (a bag holding other items).
type ContainerNode struct {
	TypeID       int              `json:"type_id"`
	Stackable    bool             `json:"stackable,omitempty"`
	StackCount   int              `json:"stack_count,omitempty"` // only meaningful when Stackable
	Slots        []*Slot          `json:"slots,omitempty"`
	SubInventory []*ContainerNode `json:"sub_inventory,omitempty"`
}

// Slot is an equipment/attachment slot holding zero or one node.
type Slot struct {
	Content *ContainerNode `json:"content,omitempty"`
}

// Contribution returns how many units of its own type the node represents:
// StackCount when stackable, otherwise exactly 1.
func (n *ContainerNode) Contribution() int {
	if n == nil {
		return 0
	}
	if n.Stackable {
		return n.StackCount
	}
	return 1
}

// IsLeaf reports whether the node holds no slots and no sub-inventory.
func (n *ContainerNode) IsLeaf() bool {
	return n == nil || (len(n.Slots) == 0 && len(n.SubInventory) == 0)
}

// Item returns a non-stackable node of the given type.
func Item(typeID int) *ContainerNode {
	return &ContainerNode{TypeID: typeID}
}

// Stack returns a stackable node of the given type and count.
func Stack(typeID, count int) *ContainerNode {
	return &ContainerNode{TypeID: typeID, Stackable: true, StackCount: count}
}

// WithSlots appends one slot per content (nil contents give empty slots).
func (n *ContainerNode) WithSlots(contents ...*ContainerNode) *ContainerNode {
	for _, c := range contents {
		n.Slots = append(n.Slots, &Slot{Content: c})
	}
	return n
}

// WithItems appends children to the node's sub-inventory.
func (n *ContainerNode) WithItems(children ...*ContainerNode) *ContainerNode {
	n.SubInventory = append(n.SubInventory, children...)
	return n
}

// Role identifies one of the three ownership sources.
type Role int

const (
	RolePlayer Role = iota
	RoleStorage
	RoleCompanion
)

// Roles lists every role in display order.
var Roles = []Role{RolePlayer, RoleStorage, RoleCompanion}

func (r Role) String() string {
	switch r {
	case RolePlayer:
		return "player"
	case RoleStorage:
		return "storage"
	case RoleCompanion:
		return "companion"
	default:
		return "unknown"
	}
}

// Breakdown is the per-role ownership count for one item type.
type Breakdown struct {
	Player    int `json:"player"`
	Storage   int `json:"storage"`
	Companion int `json:"companion"`
}

// Total sums the three roles.
func (b Breakdown) Total() int {
	return b.Player + b.Storage + b.Companion
}

// Get returns the count for role r.
func (b Breakdown) Get(r Role) int {
	switch r {
	case RolePlayer:
		return b.Player
	case RoleStorage:
		return b.Storage
	case RoleCompanion:
		return b.Companion
	}
	return 0
}
