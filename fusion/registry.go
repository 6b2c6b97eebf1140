package fusion

// Registry maps anchor identifiers to floorplan coordinates.
// It is read-only after construction and safe for concurrent use.
type Registry struct {
	anchors map[string]Anchor
}

// NewRegistry indexes anchors by ID. A repeated ID replaces the earlier entry.
func NewRegistry(anchors []Anchor) *Registry {
	r := &Registry{anchors: make(map[string]Anchor, len(anchors))}
	for _, a := range anchors {
		r.anchors[a.ID] = a
	}
	return r
}

// Resolve returns the coordinate of id, or ok=false when the anchor is not
// part of the modeled floorplan.
func (r *Registry) Resolve(id string) (x, y int, ok bool) {
	a, ok := r.anchors[id]
	if !ok {
		return 0, 0, false
	}
	return a.X, a.Y, true
}

func (r *Registry) Len() int { return len(r.anchors) }
