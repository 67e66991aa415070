// Package docker runs the headless office conversion inside a container via
// the Docker Engine SDK, for hosts that have a Docker daemon but no local
// office suite installation. The source directory is bind-mounted read-only,
// the scoped temporary directory is mounted as the output directory, and the
// container is removed on every path.
package docker
