package clock

// Action is a stable, name-compared alphabet symbol.
type Action struct {
	id   int64
	name string
}

// NewAction allocates a fresh action with the given name.
func NewAction(name string) Action {
	return Action{id: nextID(), name: name}
}

// ID returns the action's stable identity.
func (a Action) ID() int64 { return a.id }

// Name returns the action's name.
func (a Action) Name() string { return a.name }

// Equal reports whether a and other have the same name: per spec.md §3,
// action equality is by name, not by allocation identity.
func (a Action) Equal(other Action) bool { return a.name == other.name }

func (a Action) String() string { return a.name }

// Alphabet is an ordered id->Action mapping plus a name->Action lookup,
// preserving insertion order on iteration.
type Alphabet struct {
	byID    map[int64]Action
	byName  map[string]Action
	ordered []Action
}

// NewAlphabet returns an empty alphabet.
func NewAlphabet() *Alphabet {
	return &Alphabet{
		byID:   make(map[int64]Action),
		byName: make(map[string]Action),
	}
}

// CreateAction returns the alphabet's action with the given name, creating
// it if absent. Idempotent on name collision: calling it twice with the
// same name returns the same Action value.
func (al *Alphabet) CreateAction(name string) Action {
	if a, ok := al.byName[name]; ok {
		return a
	}
	a := NewAction(name)
	al.byID[a.id] = a
	al.byName[name] = a
	al.ordered = append(al.ordered, a)
	return a
}

// Contains reports whether name has been registered in the alphabet.
func (al *Alphabet) Contains(name string) bool {
	_, ok := al.byName[name]
	return ok
}

// Lookup returns the action registered under name.
func (al *Alphabet) Lookup(name string) (Action, bool) {
	a, ok := al.byName[name]
	return a, ok
}

// Actions returns the alphabet's actions in insertion order.
func (al *Alphabet) Actions() []Action {
	out := make([]Action, len(al.ordered))
	copy(out, al.ordered)
	return out
}

// Len returns the number of actions registered.
func (al *Alphabet) Len() int { return len(al.ordered) }
