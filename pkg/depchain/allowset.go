package depchain

import "github.com/Sumatoshi-tech/depchain/pkg/workspace"

// AllowSet holds the package names a package may import. Names that come
// only from the ignore list have no declaration.
type AllowSet struct {
	own     string
	entries map[string]*workspace.Dependency
}

// BuildAllowSet seeds the set with ignored names, then overlays the
// declarations so a declared name always carries its declaration.
func BuildAllowSet(own string, deps []workspace.Dependency, ignored []string) AllowSet {
	entries := make(map[string]*workspace.Dependency, len(deps)+len(ignored))

	for _, name := range ignored {
		entries[name] = nil
	}

	for i := range deps {
		entries[deps[i].Name] = &deps[i]
	}

	return AllowSet{own: own, entries: entries}
}

// Allows reports whether pkg may be imported: it is the owning package
// itself or a key of the set.
func (s AllowSet) Allows(pkg string) bool {
	if pkg == s.own {
		return true
	}

	_, ok := s.entries[pkg]

	return ok
}

// Declared reports whether name is backed by a manifest declaration rather
// than by the ignore list alone.
func (s AllowSet) Declared(name string) bool {
	return s.entries[name] != nil
}

// Declaration returns the declaration for name, if any.
func (s AllowSet) Declaration(name string) (workspace.Dependency, bool) {
	dep := s.entries[name]
	if dep == nil {
		return workspace.Dependency{}, false
	}

	return *dep, true
}

// Len returns the number of names in the set, the owning package excluded.
func (s AllowSet) Len() int {
	return len(s.entries)
}
