// Package model defines the domain types shared across the xlsx2csv CLI:
// the output encoding enumeration, the conversion engine enumeration, and
// the CLIError type that carries the error taxonomy used for exit-code and
// message handling.
package model
