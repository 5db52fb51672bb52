// Package config provides configuration management for labmeas.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority), optionally seeded from .env
//  2. YAML configuration file
//  3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern LABMEAS_<SECTION>_<FIELD>:
//
//	LABMEAS_LOGGING_LEVEL=debug
//	LABMEAS_IMPORT_VARIANT=hall
//	LABMEAS_IMPORT_STRICT_FILENAMES=false
//	LABMEAS_OUTPUT_TABLE_PATH=out/hall.csv
//	LABMEAS_PIVOT_INDEX=sample,capping
//	LABMEAS_OUTPUT_TRACE_FILE=out/spans.json
//
// # Configuration File
//
// The file is looked up at LABMEAS_CONFIG_FILE, ./labmeas.yaml and
// ./configs/labmeas.yaml:
//
//	logging:
//	  level: info
//	  output: console
//	import:
//	  variant: hall
//	pivot:
//	  values: Hall mobility
//	  index: [sample, capping]
//	  columns: anneal
//	  aggregate: mean
package config
