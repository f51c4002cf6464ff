// Package fuel enumerates the standard surface fire behavior fuel model
// codes used in fuel rasters.
package fuel

// Model code groups. NonBurnable covers both classification systems; the
// remaining groups follow the 40-model taxonomy plus the original 13.
var (
	NonBurnable    = []int{91, 92, 93, 98, 99}
	Original13     = rangeInclusive(1, 13)
	Grass          = rangeInclusive(101, 109)
	GrassShrub     = rangeInclusive(121, 124)
	Shrub          = rangeInclusive(141, 149)
	TimberUnder    = rangeInclusive(161, 165)
	TimberLitter   = rangeInclusive(181, 189)
	SlashBlowdown  = rangeInclusive(201, 204)
	Burnable13     = Original13
	Burnable40     = concat(Grass, GrassShrub, Shrub, TimberUnder, TimberLitter, SlashBlowdown)
	AllModels13    = concat(NonBurnable, Burnable13)
	AllModels40    = concat(NonBurnable, Burnable40)
)

// Burnable reports whether the code names a fuel model that carries fire in
// either classification system.
func Burnable(code int) bool {
	for _, c := range Burnable13 {
		if c == code {
			return true
		}
	}
	for _, c := range Burnable40 {
		if c == code {
			return true
		}
	}
	return false
}

// Valid reports whether the code belongs to either classification system.
func Valid(code int) bool {
	if Burnable(code) {
		return true
	}
	for _, c := range NonBurnable {
		if c == code {
			return true
		}
	}
	return false
}

func rangeInclusive(lo, hi int) []int {
	out := make([]int, 0, hi-lo+1)
	for v := lo; v <= hi; v++ {
		out = append(out, v)
	}
	return out
}

func concat(groups ...[]int) []int {
	var out []int
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
