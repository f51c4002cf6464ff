// Package perimeter turns the simulator's time-stamped fire-boundary dumps
// into one repaired geometry per output time step. Boundaries arrive as an
// ordered sequence sorted by elapsed time; repeated times are unioned into a
// single polygon or multipolygon.
package perimeter
