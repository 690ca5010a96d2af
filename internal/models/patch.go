package models

// Patch is a local change applied to a held list after a remote write succeeds.
type Patch struct {
	Remove []string // canonical ids to drop
	Upsert []Movie  // replaced in place when present, appended otherwise
}

// RemovePatch drops the movie with the given id.
func RemovePatch(id string) Patch {
	return Patch{Remove: []string{CanonicalID(id)}}
}

// UpsertPatch inserts or replaces m.
func UpsertPatch(m Movie) Patch {
	return Patch{Upsert: []Movie{m}}
}

// ApplyPatch returns a new list with p applied. The input list is not modified.
func ApplyPatch(list []Movie, p Patch) []Movie {
	remove := make(map[string]bool, len(p.Remove))
	for _, id := range p.Remove {
		if id = CanonicalID(id); id != "" {
			remove[id] = true
		}
	}

	upserts := make(map[string]Movie, len(p.Upsert))
	order := make([]string, 0, len(p.Upsert))
	for _, m := range p.Upsert {
		id := m.CanonicalID()
		if id == "" {
			continue
		}
		if _, seen := upserts[id]; !seen {
			order = append(order, id)
		}
		upserts[id] = m
	}

	out := make([]Movie, 0, len(list)+len(order))
	for _, m := range list {
		id := m.CanonicalID()
		if remove[id] {
			continue
		}
		if u, ok := upserts[id]; ok {
			out = append(out, u)
			delete(upserts, id)
			continue
		}
		out = append(out, m)
	}

	for _, id := range order {
		if u, ok := upserts[id]; ok && !remove[id] {
			out = append(out, u)
		}
	}
	return out
}
