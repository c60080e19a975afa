package workspace

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/firefly-engineering/ember-addon-tests/internal/logging"
)

// copyTree copies src to dst. Entries whose first path segment relative to
// src is excluded are skipped along with everything below them. Symlinks
// are recreated rather than followed.
func copyTree(src, dst string, excluded func(segment string) bool) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		if rel == "." {
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(dst, info.Mode().Perm()|0700)
		}

		first, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
		if excluded(first) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target, err := securejoin.SecureJoin(dst, rel)
		if err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch mode := info.Mode(); {
		case mode&fs.ModeSymlink != 0:
			link, err := os.Readlink(p)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case mode.IsDir():
			return os.MkdirAll(target, mode.Perm()|0700)
		case mode.IsRegular():
			return copyFile(p, target, mode.Perm())
		default:
			logging.Debug("skipping irregular file", "path", p, "mode", mode.String())
			return nil
		}
	})
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
