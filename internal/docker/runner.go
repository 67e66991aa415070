package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/shinji-kodama/xlsx2csv/internal/model"
	"github.com/shinji-kodama/xlsx2csv/internal/office"
)

// DefaultImage is the container image used when the config file does not
// name one. The linuxserver image bundles a full LibreOffice installation;
// the entrypoint is overridden to run soffice directly.
const DefaultImage = "lscr.io/linuxserver/libreoffice:latest"

// Container-side mount points. The source file's directory is mounted
// read-only at inDir; the scoped temporary directory is mounted at outDir,
// so the produced CSV lands directly in the invocation's temp dir on the
// host.
const (
	inDir  = "/in"
	outDir = "/out"
)

// LabelManagedBy marks converter containers created by this tool, so
// leftovers from killed runs are identifiable.
const (
	LabelManagedBy = "xlsx2csv.managed-by"
	managedByValue = "xlsx2csv"
)

// Engine converts spreadsheets by running the office binary inside a
// one-shot container.
type Engine struct {
	// Image is the container image to run.
	Image string

	cli *Client
}

// NewEngine creates a docker Engine using the given image (empty means
// DefaultImage). It verifies daemon connectivity before returning.
func NewEngine(ctx context.Context, imageName string) (*Engine, error) {
	if imageName == "" {
		imageName = DefaultImage
	}

	cli, err := NewClient()
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(ctx); err != nil {
		_ = cli.Close()
		return nil, err
	}
	return &Engine{Image: imageName, cli: cli}, nil
}

// Name identifies the engine in trace output.
func (e *Engine) Name() string {
	return "docker"
}

// Close releases the Docker client.
func (e *Engine) Close() error {
	return e.cli.Close()
}

// ContainerSpec is the fully assembled container configuration for one
// conversion. It is built by BuildSpec and consumed by Convert; keeping the
// assembly separate from the API calls makes it testable without a daemon.
type ContainerSpec struct {
	Config *container.Config
	Host   *container.HostConfig
}

// BuildSpec assembles the container configuration for a conversion request:
// soffice in headless mode reading from the read-only /in mount and writing
// into the /out mount.
func BuildSpec(imageName string, req model.ConvertRequest) ContainerSpec {
	containerReq := model.ConvertRequest{
		SourcePath: filepath.Join(inDir, filepath.Base(req.SourcePath)),
		OutDir:     outDir,
		Encoding:   req.Encoding,
	}

	return ContainerSpec{
		Config: &container.Config{
			Image:      imageName,
			Entrypoint: []string{"soffice"},
			Cmd:        office.BuildArgs(containerReq),
			Env:        []string{"LANG=en_US.UTF-8", "LC_ALL=en_US.UTF-8"},
			Labels:     map[string]string{LabelManagedBy: managedByValue},
		},
		Host: &container.HostConfig{
			Binds: []string{
				filepath.Dir(req.SourcePath) + ":" + inDir + ":ro",
				req.OutDir + ":" + outDir,
			},
		},
	}
}

// Convert runs one converter container to completion. The returned string
// is the container's combined log output for tracing. A non-zero container
// exit, or a clean exit that produced no output file, is an external-tool
// error. The container is force-removed on every path.
func (e *Engine) Convert(ctx context.Context, req model.ConvertRequest) (string, error) {
	spec := BuildSpec(e.Image, req)
	sdk := e.cli.Inner()

	created, err := sdk.ContainerCreate(ctx, spec.Config, spec.Host, nil, nil, "")
	if err != nil {
		// Pull the image on first use, then retry the create once.
		if !client.IsErrNotFound(err) {
			return "", model.WrapCLIError(model.KindExternalTool,
				"failed to create converter container", err)
		}
		if pullErr := e.pullImage(ctx); pullErr != nil {
			return "", pullErr
		}
		created, err = sdk.ContainerCreate(ctx, spec.Config, spec.Host, nil, nil, "")
		if err != nil {
			return "", model.WrapCLIError(model.KindExternalTool,
				"failed to create converter container", err)
		}
	}

	// Removal is unconditional: the container is single-use, and leaving it
	// behind after a signal would leak alongside the temp dir cleanup.
	// Background context so removal still happens when ctx is cancelled.
	defer func() {
		_ = sdk.ContainerRemove(context.Background(), created.ID,
			container.RemoveOptions{Force: true})
	}()

	if err := sdk.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return "", model.WrapCLIError(model.KindExternalTool,
			"failed to start converter container", err)
	}

	statusCh, errCh := sdk.ContainerWait(ctx, created.ID, container.WaitConditionNotRunning)
	var exitCode int64
	select {
	case err := <-errCh:
		return "", model.WrapCLIError(model.KindExternalTool,
			"failed waiting for converter container", err)
	case status := <-statusCh:
		exitCode = status.StatusCode
	}

	logs := e.containerLogs(ctx, created.ID)
	if exitCode != 0 {
		return logs, model.NewCLIError(model.KindExternalTool,
			fmt.Sprintf("converter container exited with status %d: %s",
				exitCode, strings.TrimSpace(logs)))
	}
	return logs, nil
}

// pullImage pulls e.Image, discarding the progress stream.
func (e *Engine) pullImage(ctx context.Context) error {
	reader, err := e.cli.Inner().ImagePull(ctx, e.Image, image.PullOptions{})
	if err != nil {
		return model.WrapCLIError(model.KindExternalTool,
			fmt.Sprintf("failed to pull converter image %q", e.Image), err)
	}
	defer reader.Close()

	// The pull stream must be drained for the pull to complete.
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return model.WrapCLIError(model.KindExternalTool,
			fmt.Sprintf("failed while pulling converter image %q", e.Image), err)
	}
	return nil
}

// containerLogs fetches and demultiplexes the container's output.
// Log retrieval is best-effort: failures yield an empty string rather
// than masking the conversion result.
func (e *Engine) containerLogs(ctx context.Context, containerID string) string {
	reader, err := e.cli.Inner().ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return ""
	}
	defer reader.Close()

	// Docker multiplexes stdout/stderr into one stream; stdcopy splits it.
	var buf bytes.Buffer
	_, _ = stdcopy.StdCopy(&buf, &buf, reader)
	return buf.String()
}
