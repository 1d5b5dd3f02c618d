package registry

import (
	"strings"

	"github.com/Harshitk-cp/factline/internal/domain"
)

// NameIndex resolves sources by display name. It exists only for reading
// legacy records that stored attribution text instead of source ids.
type NameIndex struct {
	reg    *Registry
	byName map[string]string
}

func NewNameIndex(r *Registry) *NameIndex {
	idx := &NameIndex{reg: r, byName: make(map[string]string, len(r.order))}
	for _, id := range r.order {
		idx.byName[normalizeName(r.byID[id].Name)] = id
	}
	return idx
}

func (n *NameIndex) LookupByName(name string) (domain.Source, bool) {
	id, ok := n.byName[normalizeName(name)]
	if !ok {
		return domain.Source{}, false
	}
	return n.reg.Get(id)
}

// ParseAttribution maps a legacy "Reuters 9.8|9.5 · BBC 9.1*|8.0" string
// back to story sources. Unknown names are kept without an id.
func (n *NameIndex) ParseAttribution(attribution string) []domain.StorySource {
	var out []domain.StorySource
	for _, part := range strings.Split(attribution, "·") {
		part = strings.TrimSpace(part)
		if part == "" || strings.HasPrefix(part, "+") {
			continue
		}
		name, scores := splitScores(part)
		src := domain.StorySource{Name: name, Scores: scores}
		if s, ok := n.LookupByName(name); ok {
			src.ID = s.ID
			src.Name = s.Name
		}
		out = append(out, src)
	}
	return out
}

// splitScores separates a trailing "9.8|9.5" token from the source name.
func splitScores(part string) (string, string) {
	if i := strings.Index(part, " +"); i > 0 {
		part = part[:i]
	}
	fields := strings.Fields(part)
	if len(fields) > 1 && strings.Contains(fields[len(fields)-1], "|") {
		return strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1]
	}
	return part, ""
}
