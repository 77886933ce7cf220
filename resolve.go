package everly

// ResolveOrder computes a total initialization order over the given
// descriptors: every module appears exactly once and strictly after all of
// its declared dependencies.
//
// The algorithm is Kahn's topological sort, iteratively removing nodes with
// no remaining unsatisfied dependencies. Ties are broken by the order the
// descriptors are passed in (registration order), so two runs over the same
// registration sequence always produce the same order.
//
// ResolveOrder is pure: it never mutates its input and may be called
// repeatedly. It fails with a *MissingDependencyError when a descriptor
// names a dependency that is not present, or a *CycleError when removal
// stalls with modules remaining.
func ResolveOrder(descriptors []Descriptor) ([]string, error) {
	present := make(map[string]bool, len(descriptors))
	for _, d := range descriptors {
		present[d.Name] = true
	}

	remaining := make(map[string]int, len(descriptors))
	for _, d := range descriptors {
		for _, dep := range d.Dependencies {
			if !present[dep] {
				return nil, &MissingDependencyError{Module: d.Name, Dependency: dep}
			}
		}
		remaining[d.Name] = len(d.Dependencies)
	}

	dependents := make(map[string][]string, len(descriptors))
	for _, d := range descriptors {
		for _, dep := range d.Dependencies {
			dependents[dep] = append(dependents[dep], d.Name)
		}
	}

	order := make([]string, 0, len(descriptors))
	resolved := make(map[string]bool, len(descriptors))

	for len(order) < len(descriptors) {
		// Pick the earliest-registered module with no unsatisfied
		// dependencies. Scanning the input slice each round keeps the
		// tie-break deterministic; registries are small.
		picked := ""
		for _, d := range descriptors {
			if !resolved[d.Name] && remaining[d.Name] == 0 {
				picked = d.Name
				break
			}
		}
		if picked == "" {
			var stuck []string
			for _, d := range descriptors {
				if !resolved[d.Name] {
					stuck = append(stuck, d.Name)
				}
			}
			return nil, &CycleError{Remaining: stuck}
		}

		resolved[picked] = true
		order = append(order, picked)
		for _, dependent := range dependents[picked] {
			remaining[dependent]--
		}
	}

	return order, nil
}
