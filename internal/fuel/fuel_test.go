package fuel

import "testing"

func TestGroupSizes(t *testing.T) {
	cases := []struct {
		name string
		got  int
		want int
	}{
		{"NonBurnable", len(NonBurnable), 5},
		{"Original13", len(Original13), 13},
		{"Grass", len(Grass), 9},
		{"GrassShrub", len(GrassShrub), 4},
		{"Shrub", len(Shrub), 9},
		{"TimberUnder", len(TimberUnder), 5},
		{"TimberLitter", len(TimberLitter), 9},
		{"SlashBlowdown", len(SlashBlowdown), 4},
		{"Burnable40", len(Burnable40), 40},
		{"AllModels40", len(AllModels40), 45},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("%s has %d codes, want %d", c.name, c.got, c.want)
		}
	}
}

func TestBurnable(t *testing.T) {
	if Burnable(99) {
		t.Error("99 is non-burnable")
	}
	if !Burnable(101) {
		t.Error("101 is a burnable grass model")
	}
	if !Burnable(5) {
		t.Error("5 is a burnable original model")
	}
	if Burnable(300) {
		t.Error("300 is not a model code")
	}
}

func TestValid(t *testing.T) {
	if !Valid(98) {
		t.Error("98 is a valid non-burnable code")
	}
	if Valid(0) {
		t.Error("0 is not a model code")
	}
}
