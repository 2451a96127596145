package formstate

// Dropdown is the rendered state of one node's hostname selector.
type Dropdown struct {
	Index    int      `json:"index"`
	Role     Role     `json:"role"`
	Options  []string `json:"options"`
	Selected string   `json:"selected"`
	Disabled bool     `json:"disabled"`
}

// Allocator keeps every node's hostname selector in step with the store's
// reservations. It subscribes to the store and recomputes all selectors
// after each mutation.
type Allocator struct {
	store     *Store
	dropdowns []Dropdown
	onRefresh func([]Dropdown)
}

func NewAllocator(store *Store) *Allocator {
	a := &Allocator{store: store}
	store.Subscribe(a)
	return a
}

// OnRefresh registers fn to receive every recomputed dropdown set.
func (a *Allocator) OnRefresh(fn func([]Dropdown)) {
	a.onRefresh = fn
}

func (a *Allocator) Render(*Store) {
	a.Refresh()
}

// Refresh recomputes the selector of every live node, ordered by index.
func (a *Allocator) Refresh() []Dropdown {
	nodes := a.store.Nodes()
	out := make([]Dropdown, 0, len(nodes))
	for _, n := range nodes {
		d := Dropdown{
			Index:    n.Index,
			Role:     n.Role,
			Selected: n.Hostname,
			Options:  []string{},
		}
		if n.Role == RoleUnset {
			d.Disabled = true
		} else {
			d.Options = a.store.candidates(n.Role, n.Hostname)
		}
		out = append(out, d)
	}

	a.dropdowns = out
	if a.onRefresh != nil {
		a.onRefresh(out)
	}
	return out
}

// Dropdowns returns the result of the last refresh.
func (a *Allocator) Dropdowns() []Dropdown {
	return a.dropdowns
}
