package mathx

import "testing"

func TestBetweenInclusive(t *testing.T) {
	lo, hi := uint32(433050000), uint32(434790000)
	cases := []struct {
		v    uint32
		want bool
	}{
		{lo - 1, false},
		{lo, true},
		{433920000, true},
		{hi, true},
		{hi + 1, false},
	}
	for _, c := range cases {
		if got := Between(c.v, lo, hi); got != c.want {
			t.Fatalf("Between(%d) = %v want %v", c.v, got, c.want)
		}
	}
}

func TestClamp(t *testing.T) {
	if Clamp(5, 1, 3) != 3 || Clamp(-1, 1, 3) != 1 || Clamp(2, 3, 1) != 2 {
		t.Fatal("Clamp mismatch")
	}
}

func TestRoundDivAndPercent(t *testing.T) {
	if got := RoundDiv(uint64(7), 2); got != 4 {
		t.Fatalf("RoundDiv(7,2) = %d", got)
	}
	if got := RoundDiv(uint32(7), 0); got != 0 {
		t.Fatalf("RoundDiv by zero = %d", got)
	}
	if got := Percent(uint64(1), 4); got != 25 {
		t.Fatalf("Percent = %v", got)
	}
	if got := Percent(uint64(0), 0); got != 0 {
		t.Fatalf("Percent of zero total = %v", got)
	}
}
