package scope

import "fmt"

// maxGhostChain bounds ghost-chain walks so a cyclic chain (which
// spec.md §5 says must never occur "by construction") fails loudly
// instead of looping forever — a defensive backstop, not a supported
// configuration.
const maxGhostChain = 1024

// Deghost walks id's ghost chain to its terminus, a no-op when id has
// no ghost (spec.md GLOSSARY: "Deghost").
func (s *Session) Deghost(id ObjectID) ObjectID {
	seen := make(map[ObjectID]bool, 8)
	cur := id
	for i := 0; i < maxGhostChain; i++ {
		obj := s.Get(cur)
		if obj.ghost == NoObject {
			return cur
		}
		if seen[obj.ghost] {
			return cur // cycle: stop at the last good link rather than loop
		}
		seen[cur] = true
		cur = obj.ghost
	}
	return cur
}

// InstallGhost sets target.ghost = source, the effect of a Copier node
// at render time (spec.md §4.3 Ghosting). It rejects installations that
// would create a cycle, per spec.md §5: "a Copier installing A.ghost =
// A is invalid and implementations must detect and reject it at render
// time by walking the chain."
func (s *Session) InstallGhost(target, source ObjectID) error {
	if target == source {
		return fmt.Errorf("scope: ghost cycle: %d -> %d", target, source)
	}
	seen := map[ObjectID]bool{target: true}
	cur := source
	for i := 0; i < maxGhostChain; i++ {
		if cur == NoObject {
			break
		}
		if seen[cur] {
			return fmt.Errorf("scope: ghost cycle installing %d -> %d", target, source)
		}
		seen[cur] = true
		cur = s.Get(cur).ghost
	}
	s.Get(target).ghost = source
	return nil
}
