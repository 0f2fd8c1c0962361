package region

import (
	"testing"

	"subghz-go/types"
)

func TestBandBoundaries(t *testing.T) {
	for _, r := range []types.Region{types.RegionEuRu, types.RegionUsCaAu, types.RegionJp} {
		p := New(r)
		for _, b := range p.Bands() {
			cases := []struct {
				f    uint32
				want bool
			}{
				{b.Lo - 1, false},
				{b.Lo, true},
				{b.Lo + (b.Hi-b.Lo)/2, true},
				{b.Hi, true},
				{b.Hi + 1, false},
			}
			for _, c := range cases {
				if got := p.IsTxAllowed(c.f); got != c.want {
					t.Fatalf("%v IsTxAllowed(%d) = %v want %v", r, c.f, got, c.want)
				}
			}
		}
	}
}

func TestRegionTables(t *testing.T) {
	cases := []struct {
		r    types.Region
		f    uint32
		want bool
	}{
		{types.RegionEuRu, 433920000, true},
		{types.RegionEuRu, 315000000, false},
		{types.RegionEuRu, 868350000, true},
		{types.RegionUsCaAu, 315000000, true},
		{types.RegionUsCaAu, 868350000, false},
		{types.RegionUsCaAu, 915000000, true},
		{types.RegionJp, 433920000, false},
		{types.RegionJp, 315000000, true},
		{types.RegionJp, 922000000, true},
	}
	for _, c := range cases {
		if got := New(c.r).IsTxAllowed(c.f); got != c.want {
			t.Fatalf("%v IsTxAllowed(%d) = %v want %v", c.r, c.f, got, c.want)
		}
	}
}

func TestUnknownRegionFailsOpen(t *testing.T) {
	p := New(types.RegionUnknown)
	for _, f := range []uint32{1, 315000000, 433920000, 2400000000} {
		if !p.IsTxAllowed(f) {
			t.Fatalf("unknown region refused %d", f)
		}
	}
	if p.Bands() != nil {
		t.Fatal("unknown region should report no band table")
	}
	if p.Regulation(1) != types.RegulationTxRx {
		t.Fatal("unknown region regulation should be tx_rx")
	}
}

func TestBandsIsACopy(t *testing.T) {
	p := New(types.RegionEuRu)
	b := p.Bands()
	b[0].Lo = 0
	if !(p.Bands()[0].Lo == 433050000) {
		t.Fatal("Bands exposed the table")
	}
}

func TestPathFor(t *testing.T) {
	cases := []struct {
		f    uint32
		path types.Path
		ok   bool
	}{
		{315000000, types.Path315, true},
		{433920000, types.Path433, true},
		{868350000, types.Path868, true},
		{299999754, types.PathIsolate, false},
		{500000000, types.PathIsolate, false},
		{928000001, types.PathIsolate, false},
	}
	for _, c := range cases {
		p, ok := PathFor(c.f)
		if p != c.path || ok != c.ok {
			t.Fatalf("PathFor(%d) = %v,%v", c.f, p, ok)
		}
		if IsFrequencyValid(c.f) != c.ok {
			t.Fatalf("IsFrequencyValid(%d) != %v", c.f, c.ok)
		}
	}
}
