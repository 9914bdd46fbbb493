package ir

// Symbols indexes the variants and enums a module declares, so match and
// switch statements can be checked against them.
type Symbols struct {
	Variants map[string]*Variant
	Enums    map[string]*Enum
}

// NewSymbols builds the symbol table for m.
func NewSymbols(m *Module) *Symbols {
	s := &Symbols{
		Variants: make(map[string]*Variant),
		Enums:    make(map[string]*Enum),
	}
	for _, d := range m.Decls {
		switch d := d.(type) {
		case *Variant:
			s.Variants[d.Name] = d
		case *Enum:
			s.Enums[d.Name] = d
		}
	}
	return s
}

// Coverage describes how a match or switch relates to its declared type.
type Coverage struct {
	// Known is true when the scrutinised type is declared in the module.
	Known bool
	// Exhaustive is true when the cases name every branch (or value).
	Exhaustive bool
	// Missing lists uncovered branches (or values) in declaration order.
	Missing []string
}

// MatchCoverage reports which branches of the matched variant the cases
// cover.
func (s *Symbols) MatchCoverage(m *Match) Coverage {
	v, ok := s.Variants[m.Variant]
	if !ok {
		return Coverage{}
	}
	seen := make(map[string]bool, len(m.Cases))
	for _, c := range m.Cases {
		seen[c.Branch] = true
	}
	cov := Coverage{Known: true}
	for _, b := range v.Branches {
		if !seen[b.Name] {
			cov.Missing = append(cov.Missing, b.Name)
		}
	}
	cov.Exhaustive = len(cov.Missing) == 0
	return cov
}

// SwitchCoverage reports which values of the switched enum the cases cover.
func (s *Symbols) SwitchCoverage(sw *Switch) Coverage {
	e, ok := s.Enums[sw.Enum]
	if !ok {
		return Coverage{}
	}
	seen := make(map[string]bool, len(sw.Cases))
	for _, c := range sw.Cases {
		seen[c.Value] = true
	}
	cov := Coverage{Known: true}
	for _, v := range e.Values {
		if !seen[v] {
			cov.Missing = append(cov.Missing, v)
		}
	}
	cov.Exhaustive = len(cov.Missing) == 0
	return cov
}

// Branch returns the named branch of the named variant.
func (s *Symbols) Branch(variant, branch string) (Branch, bool) {
	v, ok := s.Variants[variant]
	if !ok {
		return Branch{}, false
	}
	for _, b := range v.Branches {
		if b.Name == branch {
			return b, true
		}
	}
	return Branch{}, false
}
