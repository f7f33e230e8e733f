package world

import "github.com/udisondev/seed/internal/geom"

// ForEachVisibleObject iterates over all objects visible from p.
// Visibility = current region + 8 surrounding regions (3×3 window).
// If fn returns false, iteration stops early.
func ForEachVisibleObject(w *World, p geom.Vec3, fn func(*Object) bool) {
	cx, cy := w.grid.Cell(p.X, p.Y)
	for _, id := range Surrounding(cx, cy) {
		r := w.Region(id)
		if r == nil {
			continue
		}
		for _, obj := range r.Snapshot() {
			if !fn(obj) {
				return
			}
		}
	}
}

// CountVisibleObjects counts objects visible from the observer.
func CountVisibleObjects(w *World) int {
	count := 0
	ForEachVisibleObject(w, w.Origin(), func(*Object) bool {
		count++
		return true
	})
	return count
}
