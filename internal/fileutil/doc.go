// Package fileutil walks project directories for the analyze step.
//
// ScanDirectory is the general walker: extension and name-pattern filters,
// excluded directory names, an optional depth limit, and error tolerance
// (unreadable entries are collected in ScanResult.Errors while the walk
// continues). Hidden directories are always skipped. Results are absolute
// paths in sorted order.
//
// ScanProject applies the defaults used when no analyze command is
// configured: a recursive walk that skips dependency and build output
// directories.
//
//	scan, err := fileutil.ScanProject(".")
//	if err != nil {
//	    return err
//	}
//	for ext, n := range scan.ByExtension() {
//	    fmt.Printf("%s: %d\n", ext, n)
//	}
package fileutil
