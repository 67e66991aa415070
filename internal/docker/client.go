package docker

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/docker/docker/client"

	"github.com/shinji-kodama/xlsx2csv/internal/model"
)

// defaultPingTimeout bounds the daemon liveness probe. Generous enough for
// Docker Desktop, which answers noticeably slower than native Linux Docker.
const defaultPingTimeout = 5 * time.Second

// Client wraps the Docker Engine SDK client with socket detection and a
// bounded liveness check.
type Client struct {
	inner *client.Client
}

// NewClient creates a Docker client. DOCKER_HOST is respected when set;
// otherwise the standard Unix socket paths are probed (the system socket,
// then the per-user Docker Desktop socket).
func NewClient() (*Client, error) {
	if host := os.Getenv("DOCKER_HOST"); host != "" {
		return newClientWithHost(host)
	}

	host, err := detectUnixSocket()
	if err != nil {
		return nil, model.WrapCLIError(model.KindExternalTool,
			"Docker socket not found", err)
	}
	return newClientWithHost(host)
}

func newClientWithHost(host string) (*Client, error) {
	// API version negotiation keeps the SDK compatible with whatever daemon
	// version is running, without pinning an API version here.
	c, err := client.NewClientWithOpts(
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, model.WrapCLIError(model.KindExternalTool,
			fmt.Sprintf("failed to create Docker client for host %q", host), err)
	}
	return &Client{inner: c}, nil
}

// detectUnixSocket returns the Docker host URI for the first socket path
// that exists, in preference order.
func detectUnixSocket() (string, error) {
	paths := []string{"/var/run/docker.sock"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home+"/.docker/run/docker.sock")
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return "unix://" + path, nil
		}
	}
	return "", fmt.Errorf("no Docker socket at any of %v — is Docker running?", paths)
}

// Ping verifies the daemon is reachable within defaultPingTimeout.
func (c *Client) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	if _, err := c.inner.Ping(pingCtx); err != nil {
		return model.WrapCLIError(model.KindExternalTool,
			"Docker daemon is not responding — is Docker running?", err)
	}
	return nil
}

// Inner exposes the underlying SDK client.
func (c *Client) Inner() *client.Client {
	return c.inner
}

// Close releases the client's resources.
func (c *Client) Close() error {
	return c.inner.Close()
}
