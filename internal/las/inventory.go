package las

import "math"

// Inventory accumulates the header statistics of the points written so far.
type Inventory struct {
	Count    uint64
	ByReturn [EXTENDED_RETURNS]uint64

	MinX, MinY, MinZ int32
	MaxX, MaxY, MaxZ int32
}

// Add accounts for one point.
func (inv *Inventory) Add(p *Point) {
	x, y, z := p.X(), p.Y(), p.Z()
	if inv.Count == 0 {
		inv.MinX, inv.MaxX = x, x
		inv.MinY, inv.MaxY = y, y
		inv.MinZ, inv.MaxZ = z, z
	} else {
		inv.MinX, inv.MaxX = min(inv.MinX, x), max(inv.MaxX, x)
		inv.MinY, inv.MaxY = min(inv.MinY, y), max(inv.MaxY, y)
		inv.MinZ, inv.MaxZ = min(inv.MinZ, z), max(inv.MaxZ, z)
	}
	inv.Count++

	// Return numbers are 1-based, but 0 is common in the wild.
	if r := p.ReturnNumber(); r >= 1 && int(r) <= EXTENDED_RETURNS {
		inv.ByReturn[r-1]++
	}
}

// Apply copies the inventory into h. With updateExtent the bounding box is
// recomputed from the unscaled coordinates using h's scale and offset.
func (inv *Inventory) Apply(h *Header, updateExtent bool) {
	h.PointCount = inv.Count
	h.PointsByReturn = inv.ByReturn
	if !updateExtent {
		return
	}
	if inv.Count == 0 {
		h.Min, h.Max = [3]float64{}, [3]float64{}
		return
	}
	h.Min = [3]float64{
		scaled(inv.MinX, h.Scale[0], h.Offset[0]),
		scaled(inv.MinY, h.Scale[1], h.Offset[1]),
		scaled(inv.MinZ, h.Scale[2], h.Offset[2]),
	}
	h.Max = [3]float64{
		scaled(inv.MaxX, h.Scale[0], h.Offset[0]),
		scaled(inv.MaxY, h.Scale[1], h.Offset[1]),
		scaled(inv.MaxZ, h.Scale[2], h.Offset[2]),
	}
}

func scaled(v int32, scale, offset float64) float64 {
	// Round to the scale's precision so extents match what readers decode.
	f := float64(v)*scale + offset
	if scale > 0 {
		digits := math.Ceil(-math.Log10(scale))
		if digits > 0 {
			p := math.Pow(10, digits)
			f = math.Round(f*p) / p
		}
	}
	return f
}
