// Package resolve turns the CLI's positional arguments into absolute source
// and destination file paths. The source must exist and is symlink-resolved;
// the destination is computed from an optional second argument or defaults
// to the launch directory.
package resolve
