package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContribution(t *testing.T) {
	var nilNode *ContainerNode
	assert.Equal(t, 0, nilNode.Contribution())
	assert.Equal(t, 1, Item(3).Contribution())
	assert.Equal(t, 5, Stack(3, 5).Contribution())

	// StackCount is ignored for non-stackable nodes.
	n := &ContainerNode{TypeID: 3, StackCount: 9}
	assert.Equal(t, 1, n.Contribution())
}

func TestIsLeaf(t *testing.T) {
	assert.True(t, Item(1).IsLeaf())
	assert.False(t, Item(1).WithSlots(nil).IsLeaf())
	assert.False(t, Item(1).WithItems(Item(2)).IsLeaf())
}

func TestContainerNode_JSON(t *testing.T) {
	raw := `{"type_id":7,"slots":[{"content":{"type_id":8,"stackable":true,"stack_count":3}},{}],"sub_inventory":[{"type_id":9}]}`
	var n ContainerNode
	require.NoError(t, json.Unmarshal([]byte(raw), &n))
	assert.Equal(t, 7, n.TypeID)
	require.Len(t, n.Slots, 2)
	assert.Equal(t, 3, n.Slots[0].Content.Contribution())
	assert.Nil(t, n.Slots[1].Content)
	require.Len(t, n.SubInventory, 1)
	assert.Equal(t, 9, n.SubInventory[0].TypeID)
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "player", RolePlayer.String())
	assert.Equal(t, "storage", RoleStorage.String())
	assert.Equal(t, "companion", RoleCompanion.String())
	assert.Equal(t, "unknown", Role(42).String())
}

func TestBreakdown(t *testing.T) {
	b := Breakdown{Player: 2, Storage: 3}
	assert.Equal(t, 5, b.Total())
	assert.Equal(t, 3, b.Get(RoleStorage))
	assert.Equal(t, 0, b.Get(RoleCompanion))
}
