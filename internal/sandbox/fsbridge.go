package sandbox

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

// FsBridge performs file reads/writes/listings against a running sandbox
// container's filesystem via the Docker copy API, so filesystem tools can
// stay container-aware without holding a reference to the owning Manager.
type FsBridge struct {
	containerID string
	mountPath   string
}

// NewFsBridge targets the container identified by containerID; paths passed
// to its methods are resolved relative to mountPath (the in-container
// workspace mount, e.g. "/workspace").
func NewFsBridge(containerID, mountPath string) *FsBridge {
	return &FsBridge{containerID: containerID, mountPath: mountPath}
}

func (b *FsBridge) resolve(p string) string {
	if path.IsAbs(p) {
		return path.Clean(p)
	}
	return path.Join(b.mountPath, p)
}

func (b *FsBridge) newClient() (*client.Client, error) {
	return client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
}

// ReadFile returns the contents of the file at path inside the container.
func (b *FsBridge) ReadFile(ctx context.Context, p string) (string, error) {
	cli, err := b.newClient()
	if err != nil {
		return "", fmt.Errorf("sandbox fs: %w", err)
	}
	defer cli.Close()

	target := b.resolve(p)
	reader, _, err := cli.CopyFromContainer(ctx, b.containerID, target)
	if err != nil {
		return "", fmt.Errorf("read %s from container: %w", p, err)
	}
	defer reader.Close()

	tr := tar.NewReader(reader)
	hdr, err := tr.Next()
	if err != nil {
		return "", fmt.Errorf("read %s: empty archive: %w", p, err)
	}
	if hdr.Typeflag == tar.TypeDir {
		return "", fmt.Errorf("read %s: is a directory", p)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, tr); err != nil {
		return "", fmt.Errorf("read %s: %w", p, err)
	}
	return buf.String(), nil
}

// WriteFile writes content to the file at path inside the container,
// creating parent directories as needed.
func (b *FsBridge) WriteFile(ctx context.Context, p, content string) error {
	cli, err := b.newClient()
	if err != nil {
		return fmt.Errorf("sandbox fs: %w", err)
	}
	defer cli.Close()

	target := b.resolve(p)
	base := path.Base(target)
	dir := path.Dir(target)

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	hdr := &tar.Header{Name: base, Mode: 0644, Size: int64(len(content))}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("tar header for %s: %w", p, err)
	}
	if _, err := tw.Write([]byte(content)); err != nil {
		return fmt.Errorf("tar write for %s: %w", p, err)
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("tar close for %s: %w", p, err)
	}

	if err := cli.CopyToContainer(ctx, b.containerID, dir, &buf, container.CopyToContainerOptions{}); err != nil {
		return fmt.Errorf("write %s to container: %w", p, err)
	}
	return nil
}

// ListFiles returns the names of entries directly inside the directory at
// path inside the container.
func (b *FsBridge) ListFiles(ctx context.Context, p string) ([]string, error) {
	cli, err := b.newClient()
	if err != nil {
		return nil, fmt.Errorf("sandbox fs: %w", err)
	}
	defer cli.Close()

	target := b.resolve(p)
	reader, _, err := cli.CopyFromContainer(ctx, b.containerID, target)
	if err != nil {
		return nil, fmt.Errorf("list %s in container: %w", p, err)
	}
	defer reader.Close()

	root := filepath.Base(target)
	var names []string
	tr := tar.NewReader(reader)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", p, err)
		}
		rel := strings.TrimPrefix(hdr.Name, root+"/")
		if rel == "" || rel == hdr.Name || strings.Contains(rel, "/") {
			continue // skip the root entry itself and nested descendants
		}
		names = append(names, rel)
	}
	return names, nil
}
