// Package cli — batch.go implements the "xlsx2csv batch" subcommand, which runs a list of
// conversions described by a YAML manifest. Jobs run sequentially, each with
// its own scoped temporary directory; relative job paths are anchored at the
// manifest's directory so a manifest can be invoked from anywhere.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/xlsx2csv/internal/config"
	"github.com/shinji-kodama/xlsx2csv/internal/convert"
	"github.com/shinji-kodama/xlsx2csv/internal/model"
)

// Manifest is the YAML structure of a batch file.
//
// Example:
//
//	defaults:
//	  encoding: utf8
//	  engine: auto
//	jobs:
//	  - source: reports/april.xlsx
//	    dest: out/
//	  - source: legacy.xls
//	    encoding: sjis
type Manifest struct {
	// Defaults apply to every job that does not set the field itself.
	Defaults ManifestDefaults `yaml:"defaults"`

	// Jobs are the conversions to run, in order.
	Jobs []ManifestJob `yaml:"jobs"`
}

// ManifestDefaults holds manifest-wide job settings.
type ManifestDefaults struct {
	Encoding string `yaml:"encoding,omitempty"`
	Engine   string `yaml:"engine,omitempty"`
}

// ManifestJob describes one conversion in a batch manifest.
type ManifestJob struct {
	// Source is the spreadsheet path, relative to the manifest's directory
	// unless absolute. Required.
	Source string `yaml:"source"`

	// Dest is the destination file or directory, resolved like the CLI's
	// DEST argument. Optional; relative paths anchor at the manifest's
	// directory.
	Dest string `yaml:"dest,omitempty"`

	// Encoding overrides the manifest default for this job.
	Encoding string `yaml:"encoding,omitempty"`

	// Engine overrides the manifest default for this job.
	Engine string `yaml:"engine,omitempty"`
}

// batchFlags holds the flag values for the batch command.
type batchFlags struct {
	keepGoing bool // --keep-going: report job failures but keep converting
}

// NewBatchCommand creates the "batch" cobra command.
func NewBatchCommand() *cobra.Command {
	flags := &batchFlags{}

	cmd := &cobra.Command{
		Use:   "batch MANIFEST",
		Short: "Convert every spreadsheet listed in a YAML manifest",
		Long: `Run a sequence of conversions described by a YAML manifest.

Each job names a source spreadsheet and optionally a destination, encoding,
and engine. Manifest-level defaults fill in fields a job omits. Relative
paths in the manifest resolve against the manifest file's directory.

Example manifest:
  defaults:
    encoding: utf8
  jobs:
    - source: reports/april.xlsx
      dest: out/
    - source: legacy.xls
      encoding: sjis`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args[0], flags)
		},
	}

	cmd.Flags().BoolVar(&flags.keepGoing, "keep-going", false,
		"Continue with remaining jobs when one fails")

	return cmd
}

// runBatch loads the manifest and runs its jobs in order.
func runBatch(cmd *cobra.Command, manifestPath string, flags *batchFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	manifest, manifestDir, err := LoadManifest(manifestPath)
	if err != nil {
		return err
	}

	failed := 0
	for i, job := range manifest.Jobs {
		opts, source, dest, err := resolveJob(cfg, manifest.Defaults, job, manifestDir)
		if err == nil {
			var finalDest string
			finalDest, err = convert.Run(cmd.Context(), opts, source, dest)
			if err == nil {
				fmt.Printf("Converted: %s\n", finalDest)
				continue
			}
		}

		if !flags.keepGoing {
			return err
		}
		failed++
		printError(fmt.Errorf("job %d (%s): %w", i+1, job.Source, err))

		// A cancelled context means a signal arrived; remaining jobs would
		// all fail the same way, so stop instead of spamming errors.
		if cmd.Context().Err() != nil {
			break
		}
	}

	if failed > 0 {
		return model.NewCLIError(model.KindGeneral,
			fmt.Sprintf("%d of %d jobs failed", failed, len(manifest.Jobs)))
	}
	return nil
}

// LoadManifest reads and parses a batch manifest. It returns the manifest
// and the absolute directory it lives in, which anchors relative job paths.
func LoadManifest(path string) (*Manifest, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", model.WrapCLIError(model.KindResolution,
			fmt.Sprintf("failed to read manifest %s", path), err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, "", model.WrapCLIError(model.KindArgument,
			fmt.Sprintf("invalid manifest %s", path), err)
	}

	if len(manifest.Jobs) == 0 {
		return nil, "", model.NewCLIError(model.KindArgument,
			fmt.Sprintf("manifest %s contains no jobs", path))
	}
	for i, job := range manifest.Jobs {
		if job.Source == "" {
			return nil, "", model.NewCLIError(model.KindArgument,
				fmt.Sprintf("manifest %s: job %d has no source", path, i+1))
		}
	}

	absDir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, "", model.WrapCLIError(model.KindResolution,
			fmt.Sprintf("failed to resolve manifest directory for %s", path), err)
	}
	return &manifest, absDir, nil
}

// resolveJob computes one job's conversion options and anchored paths.
// Precedence per field: job value, manifest default, config file, built-in.
func resolveJob(cfg *config.Config, defaults ManifestDefaults, job ManifestJob, manifestDir string) (convert.Options, string, string, error) {
	encodingAlias := job.Encoding
	if encodingAlias == "" {
		encodingAlias = defaults.Encoding
	}
	engineAlias := job.Engine
	if engineAlias == "" {
		engineAlias = defaults.Engine
	}

	opts, err := buildOptions(cfg, encodingAlias, engineAlias)
	if err != nil {
		return convert.Options{}, "", "", err
	}

	source := anchorPath(manifestDir, job.Source)
	dest := job.Dest
	if dest != "" {
		dest = anchorPath(manifestDir, dest)
	}
	return opts, source, dest, nil
}

// anchorPath resolves a manifest-relative path against the manifest's
// directory; absolute paths pass through unchanged.
func anchorPath(manifestDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(manifestDir, path)
}
