// Package landscape models the fixed-layout binary terrain record consumed by
// the fire simulator: ten named integer raster layers with derived categorical
// summaries, plus the grid geometry and projection metadata that frame them.
package landscape
