// Package files provides file system discovery and output helpers.
//
// Discovery finds session files (CSV and XLSX) and model artifacts under a
// base path. Manager writes output files relative to an output directory,
// creating parent directories as needed.
//
// Example usage:
//
//	discovery := files.NewDiscovery("/data")
//	sessions, err := discovery.FindSessionFiles("raw")
//
//	manager := files.NewManager("/data/out")
//	path, err := manager.WriteFile("vaca_12_features.csv", payload)
package files
