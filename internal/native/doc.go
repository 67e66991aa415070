// Package native converts spreadsheets to CSV in-process, without an office
// suite installation. Modern .xlsx workbooks are read with excelize; legacy
// binary .xls workbooks are read with grate. Output matches the office CSV
// filter's behavior: first sheet only, comma-separated, quoted on demand.
package native
