package resolve

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shinji-kodama/xlsx2csv/internal/model"
)

// Source resolves the first positional argument to an absolute,
// symlink-canonicalized path of an existing regular file. Relative paths
// are interpreted against the launch directory (the process working
// directory), never against the binary's install location.
//
// A missing or non-regular source is a resolution error.
func Source(arg string) (string, error) {
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", model.WrapCLIError(model.KindResolution,
			fmt.Sprintf("failed to resolve source path %q", arg), err)
	}

	// EvalSymlinks both canonicalizes the path and verifies every component
	// exists, so a dangling argument fails here rather than at conversion.
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", model.WrapCLIError(model.KindResolution,
			fmt.Sprintf("source file not found: %s", arg), err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", model.WrapCLIError(model.KindResolution,
			fmt.Sprintf("source file not found: %s", arg), err)
	}
	if info.IsDir() {
		return "", model.NewCLIError(model.KindResolution,
			fmt.Sprintf("source %q is a directory, not a spreadsheet file", arg))
	}

	return resolved, nil
}

// Dest computes the absolute destination file path for a conversion.
//
// Rules, in order:
//   - destArg names an existing directory: the result is
//     <that directory>/<CSVName(source)>.
//   - destArg is non-empty but not an existing directory: the result is the
//     literal absolute path. Its parent is not required to exist here; a
//     missing parent surfaces later as a relocation error.
//   - destArg is empty: the result is <launch directory>/<CSVName(source)>.
func Dest(sourcePath, destArg string) (string, error) {
	csvName := CSVName(sourcePath)

	if destArg == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", model.WrapCLIError(model.KindResolution,
				"failed to determine launch directory", err)
		}
		return filepath.Join(cwd, csvName), nil
	}

	abs, err := filepath.Abs(destArg)
	if err != nil {
		return "", model.WrapCLIError(model.KindResolution,
			fmt.Sprintf("failed to resolve destination path %q", destArg), err)
	}

	if info, statErr := os.Stat(abs); statErr == nil && info.IsDir() {
		return filepath.Join(abs, csvName), nil
	}

	return abs, nil
}

// CSVName returns the output file name for a source path: the base name with
// its final extension stripped and ".csv" appended. A source with no
// extension simply gains the ".csv" suffix.
func CSVName(sourcePath string) string {
	base := filepath.Base(sourcePath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".csv"
}
