package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/firefly-engineering/ember-addon-tests/internal/errors"
)

// resolve joins rel onto the project directory. Paths that leave the
// project lexically are rejected; symlinks inside it are left to the OS.
func (p *Project) resolve(rel string) (string, error) {
	full := filepath.Join(p.path, rel)
	if r, err := filepath.Rel(p.path, full); err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", errors.ConfigError(fmt.Sprintf("%s is outside the test project", rel), err)
	}
	return full, nil
}

// ReadFile returns the content of a file relative to the project directory.
// Filesystem errors are returned as is.
func (p *Project) ReadFile(rel string) (string, error) {
	path, err := p.resolve(rel)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteFile replaces the content of a file relative to the project
// directory. Parent directories must exist.
func (p *Project) WriteFile(rel, content string) error {
	path, err := p.resolve(rel)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// DeleteFile removes a file relative to the project directory.
func (p *Project) DeleteFile(rel string) error {
	path, err := p.resolve(rel)
	if err != nil {
		return err
	}
	return os.Remove(path)
}
