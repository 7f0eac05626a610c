package transacter

// Check is a named invariant guard consulted by calling code before risky
// datastore operations. Checks can be selectively disabled within a session
// scope via Session.WithoutChecks; the active set is session state, never
// global.
type Check int

const (
	// CheckCowrite guards against writing entities from two different shards
	// in one transaction, which the datastore cannot commit atomically.
	CheckCowrite Check = iota + 1

	// CheckTableScan guards against queries that would scan a whole table.
	CheckTableScan

	// CheckFullScatter guards against queries fanning out to every shard.
	CheckFullScatter
)

func (c Check) String() string {
	switch c {
	case CheckCowrite:
		return "COWRITE"
	case CheckTableScan:
		return "TABLE_SCAN"
	case CheckFullScatter:
		return "FULL_SCATTER"
	default:
		return "UNKNOWN"
	}
}

// CheckSet is a set of checks. The zero value (nil) is a usable empty set;
// With and Without never mutate their receiver.
type CheckSet map[Check]struct{}

// NewCheckSet builds a set containing the given checks.
func NewCheckSet(checks ...Check) CheckSet {
	set := make(CheckSet, len(checks))
	for _, check := range checks {
		set[check] = struct{}{}
	}

	return set
}

// AllChecks returns a set containing every known check.
func AllChecks() CheckSet {
	return NewCheckSet(CheckCowrite, CheckTableScan, CheckFullScatter)
}

// Contains reports whether the set contains the given check.
func (s CheckSet) Contains(check Check) bool {
	_, ok := s[check]
	return ok
}

// With returns a copy of the set with the given check added.
func (s CheckSet) With(check Check) CheckSet {
	result := s.Copy()
	result[check] = struct{}{}

	return result
}

// Without returns a copy of the set with the given check removed.
func (s CheckSet) Without(check Check) CheckSet {
	result := s.Copy()
	delete(result, check)

	return result
}

// Union returns a copy of the set with all checks of the other set added.
func (s CheckSet) Union(other CheckSet) CheckSet {
	result := s.Copy()
	for check := range other {
		result[check] = struct{}{}
	}

	return result
}

// Copy returns an independent copy of the set.
func (s CheckSet) Copy() CheckSet {
	result := make(CheckSet, len(s))
	for check := range s {
		result[check] = struct{}{}
	}

	return result
}
