package scope

// Replace performs the replacement spec.md §4.3 describes: self (a
// virile Named Object) looks up its own name on its parent with itself
// excluded, and if a distinct Object occupies that name, self's
// identity is swapped into that Object's child slot and self's own
// original slot is dropped. This is how redefining `[=name …]` a second
// time makes the later value the one subsequent dereferences see.
//
// Returns true if a swap happened.
func (s *Session) Replace(self ObjectID) (bool, error) {
	obj := s.Get(self)
	if obj.kind != KindNamed || obj.parent == NoObject {
		return false, nil
	}

	prev, err := s.Lookup(obj.parent, obj.name, self)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if prev == self || prev == NoObject {
		return false, nil
	}

	parent := s.Get(obj.parent)
	prevIdx, selfIdx := -1, -1
	for i, cid := range parent.children {
		if cid == prev {
			prevIdx = i
		}
		if cid == self {
			selfIdx = i
		}
	}
	if prevIdx < 0 || selfIdx < 0 {
		return false, nil
	}

	parent.children[prevIdx] = self
	parent.children = append(parent.children[:selfIdx], parent.children[selfIdx+1:]...)
	return true, nil
}
