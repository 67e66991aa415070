package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shinji-kodama/xlsx2csv/internal/docker"
	"github.com/shinji-kodama/xlsx2csv/internal/model"
	"github.com/shinji-kodama/xlsx2csv/internal/native"
	"github.com/shinji-kodama/xlsx2csv/internal/office"
	"github.com/shinji-kodama/xlsx2csv/internal/resolve"
)

// Engine is a conversion backend. Convert writes <source-base>.csv into
// req.OutDir and returns any subprocess output for tracing.
type Engine interface {
	Name() string
	Convert(ctx context.Context, req model.ConvertRequest) (string, error)
}

// Options carries the effective settings for one conversion, after the CLI
// has merged flags over config-file values.
type Options struct {
	// Encoding is the output encoding.
	Encoding model.Encoding

	// Engine selects the conversion backend.
	Engine model.Engine

	// SofficePath overrides office binary discovery (office/auto engines).
	SofficePath string

	// DockerImage overrides the converter image (docker engine).
	DockerImage string

	// Trace receives verbose execution tracing when non-nil.
	Trace func(format string, args ...interface{})
}

func (o *Options) trace(format string, args ...interface{}) {
	if o.Trace != nil {
		o.Trace(format, args...)
	}
}

// Run performs one conversion: resolve paths, select an engine, convert
// into a scoped temporary directory, and move the result to the
// destination. It returns the final destination path for reporting.
//
// The temporary directory is released on every return path; cancellation of
// ctx (interrupt, hangup, termination) kills a still-running external
// converter and unwinds through the same release.
func Run(ctx context.Context, opts Options, sourceArg, destArg string) (string, error) {
	source, err := resolve.Source(sourceArg)
	if err != nil {
		return "", err
	}
	opts.trace("source resolved: %s", source)

	dest, err := resolve.Dest(source, destArg)
	if err != nil {
		return "", err
	}
	opts.trace("destination: %s", dest)

	engine, closeEngine, err := selectEngine(ctx, &opts)
	if err != nil {
		return "", err
	}
	defer closeEngine()
	opts.trace("engine: %s", engine.Name())

	wd, err := NewWorkdir()
	if err != nil {
		return "", err
	}
	defer wd.Release()
	opts.trace("working directory: %s", wd.Path())

	req := model.ConvertRequest{
		SourcePath: source,
		OutDir:     wd.Path(),
		Encoding:   opts.Encoding,
	}
	output, err := engine.Convert(ctx, req)
	if out := strings.TrimSpace(output); out != "" {
		opts.trace("converter output:\n%s", out)
	}
	if err != nil {
		return "", err
	}

	// The converter's exit status alone is not trusted: verify the file is
	// actually there before relocating, so a converter failure surfaces as
	// a converter error rather than a confusing missing-file move error.
	produced := filepath.Join(wd.Path(), resolve.CSVName(source))
	if _, err := os.Stat(produced); err != nil {
		return "", model.WrapCLIError(model.KindExternalTool,
			fmt.Sprintf("converter produced no output for %s", source), err)
	}

	if err := moveFile(produced, dest); err != nil {
		return "", err
	}
	opts.trace("moved %s -> %s", produced, dest)

	return dest, nil
}

// selectEngine builds the backend for opts.Engine. EngineAuto prefers the
// office binary when one is discoverable and falls back to the native
// engine otherwise. The returned closer releases engine resources and is
// always non-nil.
func selectEngine(ctx context.Context, opts *Options) (Engine, func(), error) {
	noop := func() {}

	switch opts.Engine {
	case model.EngineOffice:
		binary, err := office.Locate(opts.SofficePath)
		if err != nil {
			return nil, noop, err
		}
		return office.NewEngine(binary), noop, nil

	case model.EngineNative:
		return native.NewEngine(), noop, nil

	case model.EngineDocker:
		e, err := docker.NewEngine(ctx, opts.DockerImage)
		if err != nil {
			return nil, noop, err
		}
		return e, func() { _ = e.Close() }, nil

	default: // EngineAuto
		if binary, err := office.Locate(opts.SofficePath); err == nil {
			return office.NewEngine(binary), noop, nil
		}
		opts.trace("no office binary found, using native engine")
		return native.NewEngine(), noop, nil
	}
}

// moveFile relocates src to dst, overwriting an existing dst without
// confirmation. Rename is attempted first; when the temp root and the
// destination sit on different filesystems it fails with EXDEV, so a
// copy-and-remove fallback handles the cross-device case.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	if err := copyFile(src, dst); err != nil {
		return model.WrapCLIError(model.KindRelocation,
			fmt.Sprintf("failed to move converted file to %s", dst), err)
	}
	return os.Remove(src)
}

// copyFile copies src to dst, truncating dst if it exists.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
