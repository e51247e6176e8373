// Package fileutil walks build output directories.
//
// ScanDirectory is the general scanner: extension and regex filters,
// optional recursion with a depth limit, excluded directory names, and
// sorted absolute results. Unreadable entries are collected in
// ScanResult.Errors and the walk continues.
//
// CollectRelativePaths is the strict form used by the comparator. It keeps
// hidden files (META-INF and dot files are part of a build output), returns
// slash-separated relative paths, and fails if any directory cannot be
// listed.
//
// Basic usage:
//
//	paths, err := fileutil.CollectRelativePaths("out/production")
//	if err != nil {
//	    return err
//	}
//	for _, p := range paths {
//	    fmt.Println(p) // e.g. "demo/Greeter.class"
//	}
//
// Only class files:
//
//	result, err := fileutil.ScanDirectory("out", fileutil.ScanOptions{
//	    Extensions: []string{".class"},
//	    Recursive:  true,
//	})
package fileutil
