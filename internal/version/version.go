// Package version holds the build version, overridable with -ldflags.
package version

// Version is the current release
var Version = "0.1.0"
