// Package version records the adapter version.
package version

// Version is the current version of gideros-dap.
const Version = "0.1.0"
