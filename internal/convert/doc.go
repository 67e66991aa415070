// Package convert orchestrates one spreadsheet-to-CSV conversion: engine
// selection, the scoped temporary working directory, the conversion itself,
// and relocation of the produced file to its destination.
package convert
