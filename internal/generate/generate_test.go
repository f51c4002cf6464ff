package generate

import (
	"math"
	"testing"
)

func flatten(field [][]float64) []float64 {
	var out []float64
	for _, row := range field {
		out = append(out, row...)
	}
	return out
}

func TestUniformRange(t *testing.T) {
	g := New(1)
	for _, v := range flatten(g.Uniform(8, 8, 2, 5)) {
		if v < 2 || v >= 5 {
			t.Fatalf("value %v outside [2, 5)", v)
		}
	}
}

func TestIntegerRange(t *testing.T) {
	g := New(2)
	field := g.Integer(8, 8, 10, 20)
	for _, row := range field {
		for _, v := range row {
			if v < 10 || v >= 20 {
				t.Fatalf("value %d outside [10, 20)", v)
			}
		}
	}
}

func TestFoldedNormalNonNegative(t *testing.T) {
	g := New(3)
	for _, v := range flatten(g.FoldedNormal(10, 10, 0, 1)) {
		if v < 0 {
			t.Fatalf("folded normal produced %v", v)
		}
	}
}

func TestChoiceDrawsFromVals(t *testing.T) {
	g := New(4)
	vals := []int{101, 105, 109}
	field, err := g.Choice(6, 6, vals)
	if err != nil {
		t.Fatalf("Choice: %v", err)
	}
	allowed := map[int]bool{101: true, 105: true, 109: true}
	for _, row := range field {
		for _, v := range row {
			if !allowed[v] {
				t.Fatalf("value %d not in vals", v)
			}
		}
	}
	if _, err := g.Choice(2, 2, nil); err == nil {
		t.Fatal("expected error for empty vals")
	}
}

func TestSeedReproducibility(t *testing.T) {
	a := New(42).Uniform(4, 4, 0, 1)
	b := New(42).Uniform(4, 4, 0, 1)
	for i := range a {
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				t.Fatalf("cell (%d,%d) differs across identical seeds", i, j)
			}
		}
	}
}

func TestPatchyCoverage(t *testing.T) {
	g := New(5)
	field, err := g.Patchy(20, 20, PatchyOptions{
		Vals:            []int{142, 143},
		Base:            99,
		FilledFraction:  0.3,
		PatchSides:      6,
		PatchRadiusMean: 4,
	})
	if err != nil {
		t.Fatalf("Patchy: %v", err)
	}
	patched := 0
	for _, row := range field {
		for _, v := range row {
			switch v {
			case 99:
			case 142, 143:
				patched++
			default:
				t.Fatalf("unexpected value %d", v)
			}
		}
	}
	if frac := float64(patched) / 400; frac < 0.3 {
		t.Fatalf("patched fraction = %v, want at least 0.3", frac)
	}
}

func TestGradientSlope(t *testing.T) {
	// Aspect 0 with slope pi/4 rises one unit per row.
	field := Gradient(5, 5, 0, math.Pi/4, 1)
	for i := range field {
		for j := range field[i] {
			if field[i][j] < 0 {
				t.Fatalf("gradient minimum not shifted to zero")
			}
		}
	}
	rise := math.Abs(field[1][0]-field[0][0]) + math.Abs(field[0][1]-field[0][0])
	if math.Abs(rise-1) > 1e-9 {
		t.Fatalf("unit rise = %v, want 1", rise)
	}
}

func TestRegularPolygonArea(t *testing.T) {
	// Area of a regular n-gon with circumradius r is n/2 * r^2 * sin(2*pi/n).
	hex := RegularPolygon(6, 2, 0, 10, 10)
	want := 3.0 * 4 * math.Sin(math.Pi/3)
	if got := hex.Area(); math.Abs(got-want) > 1e-9 {
		t.Fatalf("hexagon area = %v, want %v", got, want)
	}
}

func TestSetBorder(t *testing.T) {
	field := [][]int{
		{1, 1, 1, 1},
		{1, 1, 1, 1},
		{1, 1, 1, 1},
	}
	out, err := SetBorder(field, 1, 9)
	if err != nil {
		t.Fatalf("SetBorder: %v", err)
	}
	if out[0][0] != 9 || out[2][3] != 9 || out[1][0] != 9 {
		t.Fatal("border cells not overwritten")
	}
	if out[1][1] != 1 || out[1][2] != 1 {
		t.Fatal("interior cells overwritten")
	}
	if field[0][0] != 1 {
		t.Fatal("input mutated")
	}
	if _, err := SetBorder(field, -1, 9); err == nil {
		t.Fatal("expected error for negative thickness")
	}
}
