package office

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/shinji-kodama/xlsx2csv/internal/model"
	"github.com/shinji-kodama/xlsx2csv/internal/resolve"
)

// EnvBinary is the environment variable that overrides office binary
// discovery. It takes precedence over PATH lookup but not over an explicit
// configuration value.
const EnvBinary = "XLSX2CSV_SOFFICE"

// candidateBinaries are the names probed on PATH, in preference order.
// "soffice" is the binary LibreOffice and Apache OpenOffice both install;
// some distributions only ship the "libreoffice" wrapper.
var candidateBinaries = []string{"soffice", "libreoffice"}

// CSV export filter parameters. The filter token's numeric fields are ASCII
// codes and flags understood by the office suite's "Text - txt - csv
// (StarCalc)" filter: field delimiter 44 (comma), text delimiter 34 (double
// quote), then the charset code, then 1 (export the first line).
const (
	fieldDelimiterCode = 44
	textDelimiterCode  = 34
	firstLineFlag      = 1
)

// Locate finds the office binary to invoke.
//
// Precedence: the configured path (from the config file), the EnvBinary
// environment variable, then the candidate names on PATH. A configured or
// environment-supplied path that does not resolve to an executable is an
// error rather than a fall-through, so misconfiguration is never silently
// papered over.
func Locate(configuredPath string) (string, error) {
	if configuredPath != "" {
		path, err := exec.LookPath(configuredPath)
		if err != nil {
			return "", model.WrapCLIError(model.KindExternalTool,
				fmt.Sprintf("configured office binary %q is not executable", configuredPath), err)
		}
		return path, nil
	}

	if envPath := os.Getenv(EnvBinary); envPath != "" {
		path, err := exec.LookPath(envPath)
		if err != nil {
			return "", model.WrapCLIError(model.KindExternalTool,
				fmt.Sprintf("%s=%q is not executable", EnvBinary, envPath), err)
		}
		return path, nil
	}

	for _, name := range candidateBinaries {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", model.NewCLIError(model.KindExternalTool,
		fmt.Sprintf("no office binary found on PATH (tried %s); install LibreOffice or set %s",
			strings.Join(candidateBinaries, ", "), EnvBinary))
}

// FilterToken builds the --convert-to output format descriptor for the
// given encoding, e.g. "csv:Text - txt - csv (StarCalc):44,34,76,1".
func FilterToken(enc model.Encoding) string {
	return fmt.Sprintf("csv:Text - txt - csv (StarCalc):%d,%d,%d,%d",
		fieldDelimiterCode, textDelimiterCode, enc.FilterCode(), firstLineFlag)
}

// BuildArgs assembles the headless conversion argument list for the office
// binary: convert req.SourcePath to CSV inside req.OutDir.
func BuildArgs(req model.ConvertRequest) []string {
	return []string{
		"--headless",
		"--convert-to", FilterToken(req.Encoding),
		"--outdir", req.OutDir,
		req.SourcePath,
	}
}

// Engine converts spreadsheets by running the office binary as a child
// process.
type Engine struct {
	// Binary is the absolute path of the office binary, as returned
	// by Locate.
	Binary string
}

// NewEngine creates an office Engine for the given binary path.
func NewEngine(binary string) *Engine {
	return &Engine{Binary: binary}
}

// Name identifies the engine in trace output.
func (e *Engine) Name() string {
	return "office"
}

// Convert runs the headless conversion, writing <source-base>.csv into
// req.OutDir. It returns the tool's combined output so the caller can trace
// it; the output is otherwise suppressed.
//
// The tool's exit status is checked explicitly, and a zero exit that
// produced no output file is also reported as a converter failure. The
// office binary is known to exit 0 on some conversion failures, so the
// output-file check is load-bearing, not belt-and-braces.
func (e *Engine) Convert(ctx context.Context, req model.ConvertRequest) (string, error) {
	cmd := exec.CommandContext(ctx, e.Binary, BuildArgs(req)...)

	// The office suite's CSV filter is locale-sensitive (decimal separators,
	// date rendering). Force a fixed UTF-8 English locale so output does not
	// vary with the caller's environment.
	cmd.Env = append(os.Environ(),
		"LANG=en_US.UTF-8",
		"LC_ALL=en_US.UTF-8",
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), model.WrapCLIError(model.KindExternalTool,
			fmt.Sprintf("converter failed: %s", strings.TrimSpace(string(output))), err)
	}

	produced := filepath.Join(req.OutDir, resolve.CSVName(req.SourcePath))
	if _, statErr := os.Stat(produced); statErr != nil {
		return string(output), model.WrapCLIError(model.KindExternalTool,
			fmt.Sprintf("converter exited cleanly but produced no output file: %s",
				strings.TrimSpace(string(output))), statErr)
	}

	return string(output), nil
}
