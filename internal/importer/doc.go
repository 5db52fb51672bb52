// Package importer drives a measurement Opener and a filename parser over a
// list of files and assembles the results into a domain.ResultTable.
//
// Files are processed sequentially in input order. Any failure to open a
// file, read its fields or decode its name aborts the whole batch with an
// *ImportError naming the file and step; no partial table is returned.
// Unresolvable spreadsheet keys and validation warnings do not abort: they
// are logged and counted by the measurement itself. The batch and every
// file get an OpenTelemetry span on Config.TracerProvider.
//
//	imp := importer.NewImporter(logger, metrics, importer.Config{})
//	table, err := imp.ImportFiles(ctx, paths, measurement.NewHall, metadata.Parse)
package importer
