package types

import "testing"

func TestLevelDurationAccessors(t *testing.T) {
	ld := Timed(High, 500)
	if ld.IsWait() || ld.IsReset() || ld.Level() != High || ld.Duration() != 500 {
		t.Fatalf("unexpected timed symbol: %v", ld)
	}
	if !Wait().IsWait() || Wait().IsReset() {
		t.Fatal("Wait predicates wrong")
	}
	if !Reset().IsReset() || Reset().Duration() != 0 {
		t.Fatal("Reset predicates wrong")
	}
	if got := Timed(Low, 1200).String(); got != "low:1200" {
		t.Fatalf("String = %q", got)
	}
}

func TestReplayEndsWithReset(t *testing.T) {
	pull := Replay([]LevelDuration{Timed(High, 10), Timed(Low, 20)})
	if ld := pull(); ld.Duration() != 10 {
		t.Fatalf("first = %v", ld)
	}
	if ld := pull(); ld.Duration() != 20 {
		t.Fatalf("second = %v", ld)
	}
	for i := 0; i < 3; i++ {
		if ld := pull(); !ld.IsReset() {
			t.Fatalf("call %d after end = %v", i, ld)
		}
	}
}

func TestParseRegionAndPreset(t *testing.T) {
	for _, r := range []Region{RegionUnknown, RegionEuRu, RegionUsCaAu, RegionJp} {
		got, ok := ParseRegion(r.String())
		if !ok || got != r {
			t.Fatalf("ParseRegion(%q) = %v,%v", r.String(), got, ok)
		}
	}
	if _, ok := ParseRegion("mars"); ok {
		t.Fatal("unexpected region")
	}
	if _, ok := ParsePreset("custom"); ok {
		t.Fatal("custom is not a named preset")
	}
	if p, ok := ParsePreset("ook_650khz_async"); !ok || p != PresetOok650Async {
		t.Fatalf("ParsePreset = %v,%v", p, ok)
	}
}
