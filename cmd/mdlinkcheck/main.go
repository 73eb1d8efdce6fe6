// Package main provides the entry point for the mdlinkcheck CLI.
//
// mdlinkcheck scans a tree of Markdown documents and reports relative and
// site-absolute links whose targets do not exist on disk.
//
// Usage:
//
//	mdlinkcheck check [dir]
//	mdlinkcheck history [dir]
//
// See --help for all available options.
package main

// main is the entry point for mdlinkcheck.
func main() {
	Execute()
}
