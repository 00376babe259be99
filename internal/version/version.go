// Package version holds the build version, overridable with -ldflags.
package version

// Version is the released version of page-weaver
var Version = "0.2.0"
