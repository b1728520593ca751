// Package version holds the climogram release version, overridden at
// build time with -ldflags "-X ...version.Version=v1.2.3".
package version

// Version is the current climogram version.
var Version = "0.2.0-dev"
