package vm

import "golang.org/x/exp/slices"

// TaggedAddress is one named, addressed item (a local, a global, or a
// heap-reached pointer target) being grouped onto the region that contains
// it, for the "vm vars" operation.
type TaggedAddress struct {
	Tag  string // e.g. "local:x", "global:g_counter", "heap:node0->next"
	Addr Address
}

// RegionGroup pairs a Region with the tagged addresses located within it.
type RegionGroup struct {
	Region    Region
	Addresses []TaggedAddress
}

// Group buckets addrs by the region each falls in, dropping any address
// that fails to resolve to a region. The returned groups are ordered by
// region start address; only regions with at least one address appear.
func (m *Map) Group(addrs []TaggedAddress) []RegionGroup {
	byStart := make(map[Address]*RegionGroup)
	var order []Address
	for _, a := range addrs {
		r, err := m.Locate(a.Addr)
		if err != nil {
			continue
		}
		g, ok := byStart[r.Start]
		if !ok {
			g = &RegionGroup{Region: r}
			byStart[r.Start] = g
			order = append(order, r.Start)
		}
		g.Addresses = append(g.Addresses, a)
	}
	groups := make([]RegionGroup, 0, len(order))
	for _, start := range order {
		groups = append(groups, *byStart[start])
	}
	slices.SortFunc(groups, func(a, b RegionGroup) int {
		switch {
		case a.Region.Start < b.Region.Start:
			return -1
		case a.Region.Start > b.Region.Start:
			return 1
		default:
			return 0
		}
	})
	return groups
}
