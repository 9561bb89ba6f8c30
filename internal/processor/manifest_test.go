package processor

import "testing"

func TestManifestAddMergesByDef(t *testing.T) {
	var m SourceManifest
	m.Add("meat_muffalo", 10)
	m.Add("meat_boar", 5)
	m.Add("meat_muffalo", 3)
	m.Add("meat_boar", 0)

	if m.stackCount() != 2 || m.Total() != 18 {
		t.Fatalf("expected 2 stacks totalling 18, got len=%d total=%d", m.stackCount(), m.Total())
	}
	if got := m.Sources()[0]; got.Def != "meat_muffalo" || got.Count != 13 {
		t.Fatalf("unexpected first stack %+v", got)
	}
}

func TestManifestTrimDeletesExhaustedStack(t *testing.T) {
	var m SourceManifest
	m.Add("fish_bass", 2)
	m.Add("meat_hare", 9)

	removed, deleted := m.Trim(0, 3)
	if removed != 2 || !deleted {
		t.Fatalf("expected whole 2-unit stack removed, got removed=%d deleted=%v", removed, deleted)
	}
	removed, deleted = m.Trim(0, 4)
	if removed != 4 || deleted || m.Total() != 5 {
		t.Fatalf("expected partial trim to 5, got removed=%d deleted=%v total=%d", removed, deleted, m.Total())
	}
	if removed, _ := m.Trim(7, 1); removed != 0 {
		t.Fatalf("out of range trim must be a no-op")
	}
}

func TestManifestPickWeightedFavoursLargerStacks(t *testing.T) {
	var m SourceManifest
	m.Add("meat_muffalo", 90)
	m.Add("meat_hare", 10)

	rng := NewRand(42)
	hits := [2]int{}
	for i := 0; i < 2000; i++ {
		hits[m.PickWeighted(rng)]++
	}
	if hits[0] <= hits[1]*3 {
		t.Fatalf("expected weighted draw to favour the 90-unit stack, got %v", hits)
	}
	if hits[1] == 0 {
		t.Fatalf("expected the small stack to be drawn sometimes, got %v", hits)
	}
}

func TestManifestPickDeterministicUnderSeed(t *testing.T) {
	var m SourceManifest
	m.Add("a", 3)
	m.Add("b", 4)
	m.Add("c", 5)

	rngA, rngB := NewRand(7), NewRand(7)
	for i := 0; i < 50; i++ {
		if m.PickWeighted(rngA) != m.PickWeighted(rngB) {
			t.Fatalf("expected identical draws under identical seeds at %d", i)
		}
	}
}

func TestManifestEmptyPicks(t *testing.T) {
	var m SourceManifest
	rng := NewRand(1)
	if m.PickWeighted(rng) != -1 || m.PickUniform(rng) != -1 {
		t.Fatalf("empty manifest must pick -1")
	}
	m.Add("x", 1)
	m.Clear()
	if m.stackCount() != 0 || m.Sources() != nil {
		t.Fatalf("expected cleared manifest")
	}
}
