package cart

import (
	"reflect"
	"testing"
)

func paracetamol(qty int) Line {
	return Line{ProductID: "p-1", VariantUnit: "box", Name: "Paracetamol 500mg", UnitPrice: 35000, Quantity: qty}
}

func TestAddToCartMergesSameKey(t *testing.T) {
	t.Parallel()

	c := New()
	c.AddToCart(paracetamol(2))
	c.AddToCart(paracetamol(3))

	lines := c.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected one merged line, got %d", len(lines))
	}
	if lines[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", lines[0].Quantity)
	}
}

func TestAddToCartDistinctUnitsAreSeparateLines(t *testing.T) {
	t.Parallel()

	c := New()
	c.AddToCart(paracetamol(1))
	blister := paracetamol(4)
	blister.VariantUnit = "blister"
	c.AddToCart(blister)

	if c.Len() != 2 {
		t.Fatalf("expected two lines, got %d", c.Len())
	}
	if got := c.Lines()[1].Key(); got != NewKey("p-1", "blister") {
		t.Fatalf("expected blister appended second, got %+v", got)
	}
}

func TestAddToCartNewLinesStartSelected(t *testing.T) {
	t.Parallel()

	c := New()
	item := paracetamol(1)
	item.Selected = false
	c.AddToCart(item)

	if !c.Lines()[0].Selected {
		t.Fatal("new lines must start selected")
	}
}

func TestAddToCartMergeKeepsSelectionAndPrice(t *testing.T) {
	t.Parallel()

	c := New()
	c.AddToCart(paracetamol(1))
	c.SetSelected(NewKey("p-1", "box"), false)

	repriced := paracetamol(2)
	repriced.UnitPrice = 99000
	c.AddToCart(repriced)

	line, ok := c.Line(NewKey("p-1", "box"))
	if !ok {
		t.Fatal("line missing")
	}
	if line.Selected {
		t.Fatal("merge must not reselect a deselected line")
	}
	if line.UnitPrice != 35000 || line.Quantity != 3 {
		t.Fatalf("merge should only add quantity, got %+v", line)
	}
}

func TestAddToCartNonPositiveQuantityCountsAsOne(t *testing.T) {
	t.Parallel()

	c := New()
	c.AddToCart(paracetamol(0))
	c.AddToCart(paracetamol(-3))
	if got := c.Lines()[0].Quantity; got != 2 {
		t.Fatalf("expected quantity 2, got %d", got)
	}
}

func TestUpdateQuantityFloor(t *testing.T) {
	t.Parallel()

	c := New()
	c.AddToCart(paracetamol(4))
	key := NewKey("p-1", "box")

	for _, qty := range []int{0, -5} {
		if c.UpdateQuantity(key, qty) {
			t.Fatalf("quantity %d must be a no-op", qty)
		}
		if got := c.Lines()[0].Quantity; got != 4 {
			t.Fatalf("quantity %d changed line to %d", qty, got)
		}
	}

	if !c.UpdateQuantity(key, 7) {
		t.Fatal("expected positive quantity to apply")
	}
	if got := c.Lines()[0].Quantity; got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
}

func TestUnknownKeyIsSilentNoop(t *testing.T) {
	t.Parallel()

	c := New()
	c.AddToCart(paracetamol(1))
	before := c.Lines()

	missing := NewKey("p-404", "box")
	if c.UpdateQuantity(missing, 3) {
		t.Fatal("update of unknown key reported a change")
	}
	if c.RemoveFromCart(missing) {
		t.Fatal("remove of unknown key reported a change")
	}
	if c.SetSelected(missing, false) {
		t.Fatal("select of unknown key reported a change")
	}
	if !reflect.DeepEqual(before, c.Lines()) {
		t.Fatal("cart changed after no-op operations")
	}
}

func TestRemoveFromCartPreservesOthers(t *testing.T) {
	t.Parallel()

	a := Line{ProductID: "a", VariantUnit: "box", Name: "A", UnitPrice: 1000, Quantity: 1}
	b := Line{ProductID: "b", VariantUnit: "box", Name: "B", UnitPrice: 2000, Quantity: 2}
	d := Line{ProductID: "d", VariantUnit: "tube", Name: "D", UnitPrice: 3000, SalePrice: Price(2500), Quantity: 3}

	c := New()
	c.AddToCart(a)
	c.AddToCart(b)
	c.AddToCart(d)
	c.SetSelected(d.Key(), false)

	if !c.RemoveFromCart(b.Key()) {
		t.Fatal("expected removal")
	}
	if c.Has(b.Key()) {
		t.Fatal("removed key still present")
	}

	lines := c.Lines()
	if len(lines) != 2 || lines[0].ProductID != "a" || lines[1].ProductID != "d" {
		t.Fatalf("unexpected remaining lines %+v", lines)
	}
	if lines[1].Quantity != 3 || lines[1].Selected || *lines[1].SalePrice != 2500 {
		t.Fatalf("remaining line mutated: %+v", lines[1])
	}
}

func TestSetAllSelected(t *testing.T) {
	t.Parallel()

	c := New()
	if c.AllSelected() {
		t.Fatal("empty cart must not report all selected")
	}

	c.AddToCart(paracetamol(1))
	c.AddToCart(Line{ProductID: "p-2", VariantUnit: "bottle", UnitPrice: 12000, Quantity: 1})

	c.SetAllSelected(false)
	for _, line := range c.Lines() {
		if line.Selected {
			t.Fatalf("line %s still selected", line.Key())
		}
	}
	if c.AllSelected() {
		t.Fatal("indicator must be false after deselect all")
	}

	c.SetAllSelected(true)
	for _, line := range c.Lines() {
		if !line.Selected {
			t.Fatalf("line %s not selected", line.Key())
		}
	}
	if !c.AllSelected() {
		t.Fatal("indicator must be true after select all")
	}

	c.SetSelected(NewKey("p-2", "bottle"), false)
	if c.AllSelected() {
		t.Fatal("indicator must be false with one deselected line")
	}
}

func TestLinesReturnsCopies(t *testing.T) {
	t.Parallel()

	c := New(Line{ProductID: "p", VariantUnit: "box", UnitPrice: 10, SalePrice: Price(5), Quantity: 1, Selected: true})
	lines := c.Lines()
	lines[0].Quantity = 99
	*lines[0].SalePrice = 1

	again := c.Lines()
	if again[0].Quantity != 1 || *again[0].SalePrice != 5 {
		t.Fatalf("caller mutation leaked into cart: %+v", again[0])
	}
}

func TestNewKeepsSelectionAndMergesDuplicates(t *testing.T) {
	t.Parallel()

	c := New(
		Line{ProductID: "p", VariantUnit: "box", Quantity: 2, Selected: false},
		Line{ProductID: "p", VariantUnit: "box", Quantity: 1, Selected: true},
		Line{ProductID: "q", VariantUnit: "box", Quantity: 0, Selected: true},
	)
	lines := c.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Quantity != 3 || lines[0].Selected {
		t.Fatalf("unexpected merged line %+v", lines[0])
	}
	if lines[1].Quantity != 1 {
		t.Fatalf("expected restored quantity floor of 1, got %d", lines[1].Quantity)
	}
}

func TestClear(t *testing.T) {
	t.Parallel()

	c := New()
	c.AddToCart(paracetamol(1))
	c.Clear()
	if c.Len() != 0 || c.AllSelected() {
		t.Fatal("expected empty cart after clear")
	}
}

func TestEndToEndExample(t *testing.T) {
	t.Parallel()

	key := NewKey("1", "box")

	t.Run("sale price absent", func(t *testing.T) {
		c := New()
		c.AddToCart(Line{ProductID: "1", VariantUnit: "box", UnitPrice: 35000, Quantity: 1, Name: "X"})
		if c.Len() != 1 || c.Lines()[0].Quantity != 1 {
			t.Fatalf("unexpected cart %+v", c.Lines())
		}
		if got := c.Totals().Final; got != 35000 {
			t.Fatalf("expected final 35000, got %d", got)
		}

		c.UpdateQuantity(key, 3)
		if got := c.Totals().Original; got != 105000 {
			t.Fatalf("expected original 105000, got %d", got)
		}

		c.SetSelected(key, false)
		totals := c.Totals()
		if totals.Original != 0 || totals.Final != 0 {
			t.Fatalf("expected zero totals, got %+v", totals)
		}
	})

	t.Run("sale price present as zero", func(t *testing.T) {
		c := New()
		c.AddToCart(Line{ProductID: "1", VariantUnit: "box", UnitPrice: 35000, SalePrice: Price(0), Quantity: 1, Name: "X"})
		if got := c.Totals().Final; got != 0 {
			t.Fatalf("a present zero sale price is free, got final %d", got)
		}
		c.UpdateQuantity(key, 3)
		totals := c.Totals()
		if totals.Original != 105000 || totals.Discount != 105000 {
			t.Fatalf("unexpected totals %+v", totals)
		}
	})
}
