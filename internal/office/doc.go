// Package office invokes a locally installed office suite binary in headless
// mode to convert a spreadsheet to CSV. The binary does all format parsing
// and transcoding; this package only locates it, assembles the conversion
// command line, and surfaces its exit status.
package office
