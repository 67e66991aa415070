package native

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pbnjay/grate"
	_ "github.com/pbnjay/grate/xls"  // legacy .xls support
	_ "github.com/pbnjay/grate/xlsx" // .xlsx fallback support
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/shinji-kodama/xlsx2csv/internal/model"
	"github.com/shinji-kodama/xlsx2csv/internal/resolve"
)

// Engine converts spreadsheets using in-process readers.
type Engine struct{}

// NewEngine creates a native Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Name identifies the engine in trace output.
func (e *Engine) Name() string {
	return "native"
}

// Convert reads the first sheet of the source workbook and writes it as
// <source-base>.csv into req.OutDir. The returned string is always empty;
// the native engine has no subprocess output to surface.
func (e *Engine) Convert(ctx context.Context, req model.ConvertRequest) (string, error) {
	rows, err := readFirstSheet(req.SourcePath)
	if err != nil {
		return "", err
	}

	// Honor cancellation between the read and the write so an interrupted
	// run never leaves a partially written CSV for the relocation step.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}

	outPath := filepath.Join(req.OutDir, resolve.CSVName(req.SourcePath))
	if err := writeCSV(outPath, rows, req.Encoding); err != nil {
		return "", err
	}
	return "", nil
}

// readFirstSheet dispatches on the source file extension and returns the
// cell values of the workbook's first sheet.
func readFirstSheet(sourcePath string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(sourcePath)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return readXLSX(sourcePath)
	case ".xls":
		return readXLS(sourcePath)
	default:
		return nil, model.NewCLIError(model.KindExternalTool,
			fmt.Sprintf("native engine does not support %q files (expected .xls or .xlsx); try --engine office",
				filepath.Ext(sourcePath)))
	}
}

// readXLSX reads a modern OOXML workbook via excelize.
func readXLSX(sourcePath string) ([][]string, error) {
	f, err := excelize.OpenFile(sourcePath)
	if err != nil {
		return nil, model.WrapCLIError(model.KindExternalTool,
			fmt.Sprintf("failed to open workbook %s", sourcePath), err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, model.NewCLIError(model.KindExternalTool,
			fmt.Sprintf("workbook %s contains no sheets", sourcePath))
	}

	// The office CSV filter exports only the first sheet; match that.
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, model.WrapCLIError(model.KindExternalTool,
			fmt.Sprintf("failed to read sheet %q", sheets[0]), err)
	}
	return rows, nil
}

// readXLS reads a legacy BIFF workbook via grate. The xls backend registers
// itself through the blank import above; grate.Open probes registered
// backends until one recognizes the file.
func readXLS(sourcePath string) ([][]string, error) {
	wb, err := grate.Open(sourcePath)
	if err != nil {
		return nil, model.WrapCLIError(model.KindExternalTool,
			fmt.Sprintf("failed to open workbook %s", sourcePath), err)
	}
	defer wb.Close()

	sheets, err := wb.List()
	if err != nil {
		return nil, model.WrapCLIError(model.KindExternalTool,
			fmt.Sprintf("failed to list sheets in %s", sourcePath), err)
	}
	if len(sheets) == 0 {
		return nil, model.NewCLIError(model.KindExternalTool,
			fmt.Sprintf("workbook %s contains no sheets", sourcePath))
	}

	sheet, err := wb.Get(sheets[0])
	if err != nil {
		return nil, model.WrapCLIError(model.KindExternalTool,
			fmt.Sprintf("failed to read sheet %q", sheets[0]), err)
	}

	var rows [][]string
	for sheet.Next() {
		// Strings returns the current row's cells already rendered as text.
		// Copy it: grate may reuse the backing slice between rows.
		row := sheet.Strings()
		rows = append(rows, append([]string(nil), row...))
	}
	return rows, nil
}

// writeCSV writes rows to outPath, transcoding to Shift-JIS when requested.
func writeCSV(outPath string, rows [][]string, enc model.Encoding) error {
	f, err := os.Create(outPath)
	if err != nil {
		return model.WrapCLIError(model.KindExternalTool,
			fmt.Sprintf("failed to create output file %s", outPath), err)
	}
	defer f.Close()

	var out io.Writer = f
	var tw *transform.Writer
	if enc == model.EncodingShiftJIS {
		tw = transform.NewWriter(f, japanese.ShiftJIS.NewEncoder())
		out = tw
	}

	w := csv.NewWriter(out)
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return model.WrapCLIError(model.KindExternalTool,
				"failed to write CSV row", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return model.WrapCLIError(model.KindExternalTool,
			"failed to flush CSV output", err)
	}

	// Flush any bytes the encoder is still buffering before the file closes.
	if tw != nil {
		if err := tw.Close(); err != nil {
			return model.WrapCLIError(model.KindExternalTool,
				"failed to finish Shift-JIS transcoding", err)
		}
	}
	return nil
}
