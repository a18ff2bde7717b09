package model

// Counts maps item type IDs to aggregated quantities and remembers the order in
// which types were first seen. The zero value is ready to use.
type Counts struct {
	order []int
	byID  map[int]int
}

// NewCounts returns an empty Counts.
func NewCounts() *Counts {
	return &Counts{byID: make(map[int]int)}
}

// Get returns the count for typeID and whether it is present.
func (c *Counts) Get(typeID int) (int, bool) {
	if c == nil || c.byID == nil {
		return 0, false
	}
	v, ok := c.byID[typeID]
	return v, ok
}

// Add increments typeID by qty, inserting it if absent.
func (c *Counts) Add(typeID, qty int) {
	if c.byID == nil {
		c.byID = make(map[int]int)
	}
	if _, ok := c.byID[typeID]; !ok {
		c.order = append(c.order, typeID)
	}
	c.byID[typeID] += qty
}

// Set overwrites the count for typeID, inserting it if absent.
func (c *Counts) Set(typeID, qty int) {
	if c.byID == nil {
		c.byID = make(map[int]int)
	}
	if _, ok := c.byID[typeID]; !ok {
		c.order = append(c.order, typeID)
	}
	c.byID[typeID] = qty
}

// Len returns the number of entries.
func (c *Counts) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Keys returns type IDs in insertion order.
func (c *Counts) Keys() []int {
	if c == nil {
		return nil
	}
	out := make([]int, len(c.order))
	copy(out, c.order)
	return out
}

// Range calls fn for each entry in insertion order until fn returns false.
func (c *Counts) Range(fn func(typeID, qty int) bool) {
	if c == nil {
		return
	}
	for _, id := range c.order {
		if !fn(id, c.byID[id]) {
			return
		}
	}
}

// Compact drops every entry whose count is zero or negative.
func (c *Counts) Compact() {
	if c == nil {
		return
	}
	n := 0
	for _, id := range c.order {
		if c.byID[id] > 0 {
			c.order[n] = id
			n++
			continue
		}
		delete(c.byID, id)
	}
	c.order = c.order[:n]
}

// Clone returns an independent copy.
func (c *Counts) Clone() *Counts {
	out := NewCounts()
	c.Range(func(typeID, qty int) bool {
		out.Set(typeID, qty)
		return true
	})
	return out
}

// Map returns the entries as a plain map.
func (c *Counts) Map() map[int]int {
	out := make(map[int]int, c.Len())
	c.Range(func(typeID, qty int) bool {
		out[typeID] = qty
		return true
	})
	return out
}
