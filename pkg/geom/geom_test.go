package geom

import "testing"

func TestManhattan(t *testing.T) {
	a := Point{X: 0, Y: 0}
	b := Point{X: 100, Y: -40}
	if got := Manhattan(a, b); got != 140 {
		t.Errorf("Manhattan(%v,%v) = %d, want 140", a, b, got)
	}
}

func TestClosestPointInRectClamps(t *testing.T) {
	r := Rect{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}
	got := ClosestPointInRect(r, Point{X: -10, Y: 200})
	want := Point{X: 0, Y: 100}
	if got != want {
		t.Errorf("ClosestPointInRect() = %v, want %v", got, want)
	}
}

func TestClosestPointInRectEmptyIsNoop(t *testing.T) {
	var r Rect // zero-value, Empty() == true
	p := Point{X: -10, Y: 200}
	if got := ClosestPointInRect(r, p); got != p {
		t.Errorf("ClosestPointInRect(empty, %v) = %v, want %v unchanged", p, got, p)
	}
}

func TestDbuMicronRoundTrip(t *testing.T) {
	u := DbuPerMicron(1000)
	dbu := u.MetersToDbu(1e-6) // 1 micron
	if dbu != 1000 {
		t.Errorf("MetersToDbu(1um) = %d, want 1000", dbu)
	}
	meters := u.DbuToMeters(1000)
	if !FuzzyEqual(meters, 1e-6, 1e-15) {
		t.Errorf("DbuToMeters(1000) = %g, want 1e-6", meters)
	}
}

func TestFuzzyGreaterEqual(t *testing.T) {
	if !FuzzyGreaterEqual(0.9999999999, 1.0, 1e-6) {
		t.Errorf("expected fuzzy-greater-equal to tolerate tiny undershoot")
	}
	if FuzzyGreaterEqual(0.5, 1.0, 1e-6) {
		t.Errorf("expected 0.5 to not fuzzy-satisfy >= 1.0")
	}
}
