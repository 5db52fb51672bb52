// Package files resolves the paths and patterns given on the command line
// to the measurement files that get imported.
//
//	d := files.NewDiscovery(logger)
//	found, err := d.Expand([]string{"data/hall/*.xlsx", "data/se"})
//	paths := files.Paths(found)
package files
