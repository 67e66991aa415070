package native

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/shinji-kodama/xlsx2csv/internal/model"
)

// writeWorkbook builds an .xlsx fixture whose first sheet contains the
// given rows, and returns its path.
func writeWorkbook(t *testing.T, dir, name string, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, value))
		}
	}

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

// convert runs the engine against source, writing into a fresh out dir,
// and returns the produced CSV bytes.
func convert(t *testing.T, source string, enc model.Encoding) []byte {
	t.Helper()

	outDir := t.TempDir()
	e := NewEngine()
	_, err := e.Convert(context.Background(), model.ConvertRequest{
		SourcePath: source,
		OutDir:     outDir,
		Encoding:   enc,
	})
	require.NoError(t, err)

	base := filepath.Base(source)
	data, err := os.ReadFile(filepath.Join(outDir, base[:len(base)-len(filepath.Ext(base))]+".csv"))
	require.NoError(t, err)
	return data
}

// TestConvert_SingleCell is the end-to-end minimal case: a 1-row,
// 1-column workbook yields a CSV with a single comma-free line.
func TestConvert_SingleCell(t *testing.T) {
	source := writeWorkbook(t, t.TempDir(), "single.xlsx", [][]interface{}{{"hello"}})

	data := convert(t, source, model.EncodingUTF8)
	assert.Equal(t, "hello\n", string(data))
}

// TestConvert_RowsAndQuoting verifies multi-row output and quote-on-demand
// for values containing the field delimiter.
func TestConvert_RowsAndQuoting(t *testing.T) {
	source := writeWorkbook(t, t.TempDir(), "rows.xlsx", [][]interface{}{
		{"name", "note"},
		{"alpha", "plain"},
		{"beta", "has, comma"},
	})

	data := convert(t, source, model.EncodingUTF8)
	assert.Equal(t, "name,note\nalpha,plain\nbeta,\"has, comma\"\n", string(data))
}

// TestConvert_ShiftJIS verifies byte-level Shift-JIS output by encoding the
// expected UTF-8 text through the same x/text encoder.
func TestConvert_ShiftJIS(t *testing.T) {
	source := writeWorkbook(t, t.TempDir(), "jp.xlsx", [][]interface{}{
		{"名前", "値"},
	})

	data := convert(t, source, model.EncodingShiftJIS)

	expected, _, err := transform.String(japanese.ShiftJIS.NewEncoder(), "名前,値\n")
	require.NoError(t, err)
	assert.Equal(t, []byte(expected), data)
}

// TestConvert_FirstSheetOnly verifies parity with the office CSV filter:
// only the first sheet is exported.
func TestConvert_FirstSheetOnly(t *testing.T) {
	dir := t.TempDir()

	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "first"))
	_, err := f.NewSheet("Second")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Second", "A1", "second"))
	source := filepath.Join(dir, "multi.xlsx")
	require.NoError(t, f.SaveAs(source))
	require.NoError(t, f.Close())

	data := convert(t, source, model.EncodingUTF8)
	assert.Equal(t, "first\n", string(data))
}

// TestConvert_UnsupportedExtension verifies that the native engine rejects
// formats it has no reader for, pointing at the office engine.
func TestConvert_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "doc.ods")
	require.NoError(t, os.WriteFile(source, []byte("not a spreadsheet"), 0644))

	e := NewEngine()
	_, err := e.Convert(context.Background(), model.ConvertRequest{
		SourcePath: source,
		OutDir:     t.TempDir(),
		Encoding:   model.EncodingUTF8,
	})
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.KindExternalTool, cliErr.Kind)
	assert.Contains(t, cliErr.Message, "--engine office")
}

// TestConvert_Cancelled verifies that a cancelled context aborts before the
// output file is written.
func TestConvert_Cancelled(t *testing.T) {
	source := writeWorkbook(t, t.TempDir(), "cancel.xlsx", [][]interface{}{{"x"}})
	outDir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewEngine()
	_, err := e.Convert(ctx, model.ConvertRequest{
		SourcePath: source,
		OutDir:     outDir,
		Encoding:   model.EncodingUTF8,
	})
	require.Error(t, err)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
