package path

import (
	"fmt"
	"os"
	"path/filepath"
)

// Builder resolves template, shape and temporary file paths.
type Builder struct {
	templateDir string
	schemaDir   string
	tmpDir      string
	uuidFunc    func() string
}

// NewBuilder checks that every directory exists.
func NewBuilder(
	templateDir string,
	schemaDir string,
	tmpDir string,
	uuidFunc func() string,
) (*Builder, error) {
	for _, dir := range []string{templateDir, schemaDir, tmpDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("path %s: %w", dir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("path %s is not a directory", dir)
		}
	}
	return &Builder{
		templateDir: templateDir,
		schemaDir:   schemaDir,
		tmpDir:      tmpDir,
		uuidFunc:    uuidFunc,
	}, nil
}

// Template returns path to template by name.
func (b *Builder) Template(name string) string {
	return filepath.Join(b.templateDir, filepath.Base(name))
}

// Schema returns path to the yaml shape by name, adding the extension when missing.
func (b *Builder) Schema(name string) string {
	name = filepath.Base(name)
	if filepath.Ext(name) == "" {
		name += ".yaml"
	}
	return filepath.Join(b.schemaDir, name)
}

// TmpFile returns a unique path in the tmp dir ending with suffix.
func (b *Builder) TmpFile(suffix string) string {
	return filepath.Join(b.tmpDir, b.uuidFunc()+suffix)
}
