// Package config loads the optional xlsx2csv configuration file. The file
// uses JSONC (JSON with Comments) and supplies defaults for values the
// command line does not set: output encoding, conversion engine, office
// binary path, and converter container image.
package config
