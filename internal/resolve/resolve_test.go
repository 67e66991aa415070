package resolve

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/xlsx2csv/internal/model"
)

// writeFixture creates an empty file and returns its path.
func writeFixture(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("fixture"), 0644))
	return path
}

// TestCSVName verifies the base-name transformation: strip the final
// extension, append .csv.
func TestCSVName(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"/data/report.xlsx", "report.csv"},
		{"/data/legacy.xls", "legacy.csv"},
		{"report.xlsx", "report.csv"},
		{"/data/archive.2024.xlsx", "archive.2024.csv"}, // only the final extension
		{"/data/noext", "noext.csv"},
		{"/data/.hidden.xlsx", ".hidden.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, CSVName(tt.source))
		})
	}
}

// TestSource_Existing verifies that an existing file resolves to an
// absolute path.
func TestSource_Existing(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "report.xlsx")

	resolved, err := Source(path)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(resolved))
	assert.Equal(t, "report.xlsx", filepath.Base(resolved))
}

// TestSource_RelativeToLaunchDir verifies that a relative argument resolves
// against the process working directory.
func TestSource_RelativeToLaunchDir(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "report.xlsx")
	t.Chdir(dir)

	resolved, err := Source("report.xlsx")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(resolved))
	assert.Equal(t, "report.xlsx", filepath.Base(resolved))
}

// TestSource_Symlink verifies symlink canonicalization: the resolved path
// points at the target, not the link.
func TestSource_Symlink(t *testing.T) {
	dir := t.TempDir()
	target := writeFixture(t, dir, "real.xlsx")
	link := filepath.Join(dir, "link.xlsx")
	require.NoError(t, os.Symlink(target, link))

	resolved, err := Source(link)
	require.NoError(t, err)
	assert.Equal(t, "real.xlsx", filepath.Base(resolved))
}

// TestSource_Missing verifies that a nonexistent source is a resolution
// error.
func TestSource_Missing(t *testing.T) {
	_, err := Source(filepath.Join(t.TempDir(), "nope.xlsx"))
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.KindResolution, cliErr.Kind)
}

// TestSource_Directory verifies that a directory argument is rejected.
func TestSource_Directory(t *testing.T) {
	_, err := Source(t.TempDir())
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.KindResolution, cliErr.Kind)
}

// TestDest_OmittedDefaultsToLaunchDir verifies that with no destination
// argument the CSV lands in the launch directory, named after the source.
func TestDest_OmittedDefaultsToLaunchDir(t *testing.T) {
	launchDir := t.TempDir()
	t.Chdir(launchDir)

	dest, err := Dest("/data/report.xlsx", "")
	require.NoError(t, err)

	// t.Chdir may enter the temp dir through a symlink (macOS /tmp), so
	// compare against what Getwd actually reports.
	cwd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "report.csv"), dest)
}

// TestDest_ExistingDirectory verifies that a directory destination receives
// <dir>/<source-base>.csv.
func TestDest_ExistingDirectory(t *testing.T) {
	destDir := t.TempDir()

	dest, err := Dest("/data/report.xlsx", destDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(destDir, "report.csv"), dest)
}

// TestDest_LiteralFilePath verifies that a non-directory destination is
// used literally, even when its parent does not exist yet.
func TestDest_LiteralFilePath(t *testing.T) {
	dir := t.TempDir()

	explicit := filepath.Join(dir, "custom-name.csv")
	dest, err := Dest("/data/report.xlsx", explicit)
	require.NoError(t, err)
	assert.Equal(t, explicit, dest)

	// Missing parent is not checked here; relocation reports it later.
	missingParent := filepath.Join(dir, "no-such-dir", "out.csv")
	dest, err = Dest("/data/report.xlsx", missingParent)
	require.NoError(t, err)
	assert.Equal(t, missingParent, dest)
}

// TestDest_RelativeDirectory verifies that a relative directory argument is
// resolved to an absolute path before joining.
func TestDest_RelativeDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "out"), 0755))
	t.Chdir(dir)

	dest, err := Dest("/data/report.xlsx", "out")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(dest))
	assert.Equal(t, "report.csv", filepath.Base(dest))
	assert.Equal(t, "out", filepath.Base(filepath.Dir(dest)))
}
