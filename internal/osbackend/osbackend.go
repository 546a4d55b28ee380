// Package osbackend implements pkg/backend.ReadWriter against the local
// filesystem: one directory per medium, named MEDIUM_NNN per spec §6.1,
// under a single media-set root directory.
package osbackend

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bgrewell/arinc665-kit/pkg/backend"
	"github.com/bgrewell/arinc665-kit/pkg/consts"
	"github.com/bgrewell/arinc665-kit/pkg/medium"
)

// Backend roots every medium's directory under Root, e.g.
// Root/MEDIUM_001/FILES.LUM.
type Backend struct {
	Root string
}

// New returns a Backend rooted at root. root is not created here; Compile's
// own existing-output check and the first CreateDirectory/WriteFile call
// are what actually touch the filesystem.
func New(root string) *Backend {
	return &Backend{Root: root}
}

// mediumDir returns the MEDIUM_NNN directory for n, relative to Root.
func (b *Backend) mediumDir(n medium.Number) string {
	return filepath.Join(b.Root, consts.MediumDirectoryPrefix+n.String())
}

// NativePath converts an ARINC 665 relativePath (backslash-separated, as
// stored in FileListEntry.Pathname+Filename) to a native filesystem path
// under the given medium's directory. Exported so a caller holding a
// media.FilePathMapping from a prior Decompile can locate the original
// file on disk, e.g. to source a later Compile.
func (b *Backend) NativePath(n medium.Number, relativePath string) string {
	parts := strings.Split(strings.TrimPrefix(relativePath, `\`), `\`)
	return filepath.Join(append([]string{b.mediumDir(n)}, parts...)...)
}

func (b *Backend) ReadFile(n medium.Number, relativePath string) ([]byte, error) {
	data, err := os.ReadFile(b.NativePath(n, relativePath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, backend.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (b *Backend) FileSize(n medium.Number, relativePath string) (uint64, error) {
	info, err := os.Stat(b.NativePath(n, relativePath))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, backend.ErrNotFound
		}
		return 0, err
	}
	return uint64(info.Size()), nil
}

func (b *Backend) CreateDirectory(n medium.Number, relativePath string) error {
	return os.MkdirAll(b.NativePath(n, relativePath), 0o755)
}

func (b *Backend) WriteFile(n medium.Number, relativePath string, data []byte) error {
	target := b.NativePath(n, relativePath)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	return os.WriteFile(target, data, 0o644)
}

// CopyFile copies sourcePath, a native filesystem path outside the media
// set, to relativePath on medium n.
func (b *Backend) CopyFile(sourcePath string, n medium.Number, relativePath string) error {
	src, err := os.Open(sourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			return backend.ErrNotFound
		}
		return err
	}
	defer src.Close()

	target := b.NativePath(n, relativePath)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := dst.ReadFrom(src); err != nil {
		return err
	}
	return nil
}

// Media discovers the medium directories present under Root, returning
// their Numbers in ascending order. Used by a decompile entry point that
// only knows a root directory, not how many media it contains.
func (b *Backend) Media() ([]medium.Number, error) {
	entries, err := os.ReadDir(b.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, backend.ErrNotFound
		}
		return nil, err
	}

	var out []medium.Number
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), consts.MediumDirectoryPrefix) {
			continue
		}
		n, err := strconv.ParseUint(strings.TrimPrefix(e.Name(), consts.MediumDirectoryPrefix), 10, 8)
		if err != nil {
			continue
		}
		out = append(out, medium.New(uint8(n)))
	}
	return out, nil
}
