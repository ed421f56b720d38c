package cart

// Cart is an ordered collection of lines keyed by (product, variant unit).
// A Cart is not safe for concurrent use; Service serializes access per owner.
type Cart struct {
	lines []Line
}

// New returns a cart seeded with lines. Duplicate keys are merged the same way
// AddToCart merges them, but the selection flag of each line is kept.
func New(lines ...Line) *Cart {
	c := &Cart{}
	for _, line := range lines {
		if line.Quantity < 1 {
			line.Quantity = 1
		}
		if idx := c.index(line.Key()); idx >= 0 {
			c.lines[idx].Quantity += line.Quantity
			continue
		}
		c.lines = append(c.lines, line.clone())
	}
	return c
}

func (c *Cart) index(key Key) int {
	for i := range c.lines {
		if c.lines[i].ProductID == key.ProductID && c.lines[i].VariantUnit == key.VariantUnit {
			return i
		}
	}
	return -1
}

// AddToCart merges item into the line with the same key by adding its quantity,
// or appends it as a new selected line. Non-positive candidate quantities count as 1.
func (c *Cart) AddToCart(item Line) {
	qty := item.Quantity
	if qty < 1 {
		qty = 1
	}
	if idx := c.index(item.Key()); idx >= 0 {
		c.lines[idx].Quantity += qty
		return
	}
	line := item.clone()
	line.Quantity = qty
	line.Selected = true
	c.lines = append(c.lines, line)
}

// RemoveFromCart deletes the line with key. It reports whether a line was removed.
func (c *Cart) RemoveFromCart(key Key) bool {
	idx := c.index(key)
	if idx < 0 {
		return false
	}
	c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
	return true
}

// UpdateQuantity replaces the quantity of the line with key. Quantities <= 0
// and unknown keys leave the cart untouched.
func (c *Cart) UpdateQuantity(key Key, quantity int) bool {
	if quantity <= 0 {
		return false
	}
	idx := c.index(key)
	if idx < 0 {
		return false
	}
	c.lines[idx].Quantity = quantity
	return true
}

// SetSelected flags one line for checkout. Unknown keys are ignored.
func (c *Cart) SetSelected(key Key, selected bool) bool {
	idx := c.index(key)
	if idx < 0 {
		return false
	}
	c.lines[idx].Selected = selected
	return true
}

// SetAllSelected sets the selection flag on every line.
func (c *Cart) SetAllSelected(selected bool) {
	for i := range c.lines {
		c.lines[i].Selected = selected
	}
}

// AllSelected backs the "select all" checkbox: true iff the cart is non-empty
// and every line is selected.
func (c *Cart) AllSelected() bool {
	if len(c.lines) == 0 {
		return false
	}
	for _, line := range c.lines {
		if !line.Selected {
			return false
		}
	}
	return true
}

// Clear drops every line.
func (c *Cart) Clear() {
	c.lines = nil
}

// Has reports whether a line with key exists.
func (c *Cart) Has(key Key) bool {
	return c.index(key) >= 0
}

// Line returns a copy of the line with key.
func (c *Cart) Line(key Key) (Line, bool) {
	idx := c.index(key)
	if idx < 0 {
		return Line{}, false
	}
	return c.lines[idx].clone(), true
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	for i, line := range c.lines {
		out[i] = line.clone()
	}
	return out
}

// Len returns the number of lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// Totals computes the totals over the currently selected lines.
func (c *Cart) Totals() Totals {
	return ComputeTotals(c.lines)
}

// CheckoutPayload builds the order handoff from the selected lines.
func (c *Cart) CheckoutPayload() CheckoutPayload {
	return BuildCheckoutPayload(c.lines)
}
