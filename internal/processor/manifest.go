package processor

import "math/rand/v2"

// SourceCount is the number of input units that came from one origin def.
type SourceCount struct {
	Def   string `json:"def"`
	Count int    `json:"count"`
}

// SourceManifest keeps per-origin sub-stacks in insertion order so random
// draws are reproducible under a seeded source.
type SourceManifest struct {
	sources []SourceCount
}

func (m *SourceManifest) stackCount() int { return len(m.sources) }

func (m *SourceManifest) Total() int {
	total := 0
	for _, s := range m.sources {
		total += s.Count
	}
	return total
}

// Sources returns a copy of the sub-stacks.
func (m *SourceManifest) Sources() []SourceCount {
	if len(m.sources) == 0 {
		return nil
	}
	return append([]SourceCount(nil), m.sources...)
}

// Add merges n units of def into its sub-stack, creating it when missing.
func (m *SourceManifest) Add(def string, n int) {
	if n <= 0 {
		return
	}
	for i := range m.sources {
		if m.sources[i].Def == def {
			m.sources[i].Count += n
			return
		}
	}
	m.sources = append(m.sources, SourceCount{Def: def, Count: n})
}

// Trim removes n units from sub-stack idx. A sub-stack that would reach zero is
// deleted outright and only its remaining count is reported as removed.
func (m *SourceManifest) Trim(idx, n int) (removed int, deleted bool) {
	if idx < 0 || idx >= len(m.sources) || n <= 0 {
		return 0, false
	}
	s := m.sources[idx]
	if s.Count-n <= 0 {
		m.sources = append(m.sources[:idx], m.sources[idx+1:]...)
		return s.Count, true
	}
	m.sources[idx].Count -= n
	return n, false
}

// PickUniform returns a random sub-stack index, or -1 when empty.
func (m *SourceManifest) PickUniform(rng *rand.Rand) int {
	if len(m.sources) == 0 {
		return -1
	}
	return rng.IntN(len(m.sources))
}

// PickWeighted returns a sub-stack index drawn with probability proportional
// to its count, or -1 when empty.
func (m *SourceManifest) PickWeighted(rng *rand.Rand) int {
	total := m.Total()
	if total <= 0 {
		return -1
	}
	r := rng.IntN(total)
	for i, s := range m.sources {
		if r < s.Count {
			return i
		}
		r -= s.Count
	}
	return len(m.sources) - 1
}

func (m *SourceManifest) At(idx int) SourceCount {
	return m.sources[idx]
}

func (m *SourceManifest) Clear() {
	m.sources = m.sources[:0]
}

func (m *SourceManifest) restore(sources []SourceCount) {
	m.sources = m.sources[:0]
	for _, s := range sources {
		m.Add(s.Def, s.Count)
	}
}
