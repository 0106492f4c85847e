package layout

import (
	"fmt"
	"strings"

	"github.com/hamishcoleman/led-sp108e/internal/fault"
)

// Order selects how LED indices walk the captured grid.
type Order int

const (
	// Serpentine: even rows run right to left, odd rows left to right.
	Serpentine Order = iota
	// RowMajor: every row runs left to right.
	RowMajor
)

func (o Order) String() string {
	switch o {
	case Serpentine:
		return "serpentine"
	case RowMajor:
		return "row_major"
	}
	return fmt.Sprintf("Order(%d)", int(o))
}

// ParseOrder accepts "serpentine" or "row_major" (also "row-major", "raster").
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "serpentine", "snake":
		return Serpentine, nil
	case "row_major", "row-major", "raster":
		return RowMajor, nil
	}
	return 0, fmt.Errorf("%w: unknown traversal %q", fault.ErrConfig, s)
}

type Layout struct {
	Width  int
	Height int
	Order  Order
}

func (l Layout) Count() int {
	return l.Width * l.Height
}

// Validate reports geometry that cannot be traversed.
func (l Layout) Validate() error {
	if l.Width <= 0 || l.Height <= 0 {
		return fmt.Errorf("%w: layout %dx%d must be positive", fault.ErrConfig, l.Width, l.Height)
	}
	if l.Order != Serpentine && l.Order != RowMajor {
		return fmt.Errorf("%w: unknown traversal %s", fault.ErrConfig, l.Order)
	}
	return nil
}

// straight is true when there is nothing to snake: a single row or a
// single column is wired as one straight strip.
func (l Layout) straight() bool {
	return l.Order == RowMajor || l.Width == 1 || l.Height == 1
}

// Source maps LED index i (0..Count-1) to the row-major index of the
// captured pixel it shows.
func (l Layout) Source(i int) int {
	r, c := i/l.Width, i%l.Width
	if !l.straight() && r%2 == 0 {
		c = l.Width - 1 - c
	}
	return r*l.Width + c
}

// Index maps pixel x,y to the LED index that displays it.
func (l Layout) Index(x, y int) int {
	xx := x
	if !l.straight() && y%2 == 0 {
		xx = l.Width - 1 - x
	}
	return y*l.Width + xx
}

// Table returns Source for every LED, in LED order.
func (l Layout) Table() []int {
	out := make([]int, l.Count())
	for i := range out {
		out[i] = l.Source(i)
	}
	return out
}
