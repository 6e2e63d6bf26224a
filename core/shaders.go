// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/devblok/learnvk/utility/kar"
	"github.com/gobuffalo/packr"
	"github.com/pkg/errors"
	"golang.org/x/exp/mmap"
)

// NewShaderSource opens the shader archive when one is configured,
// the shader directory otherwise.
func NewShaderSource(cfg RendererConfiguration) (ShaderSource, error) {
	if cfg.ShaderArchive != "" {
		return OpenArchiveShaders(cfg.ShaderArchive)
	}
	return NewDirectoryShaders(cfg.ShaderDirectory)
}

// NewDirectoryShaders serves shaders from a directory on disk
func NewDirectoryShaders(dir string) (*DirectoryShaders, error) {
	// relative box paths would resolve against this source file
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "shader directory %s", dir)
	}
	return &DirectoryShaders{
		box: packr.NewBox(abs),
	}, nil
}

// DirectoryShaders loads shader bytecode through a packr box
type DirectoryShaders struct {
	box packr.Box
}

// Load implements ShaderSource
func (d *DirectoryShaders) Load(name string) ([]byte, error) {
	if !d.box.Has(name) {
		return nil, errors.Errorf("shader %s not found in %s", name, d.box.Path)
	}
	return d.box.Find(name)
}

// List returns the compiled shaders with a recognised type
func (d *DirectoryShaders) List() []string {
	return compiledShaders(d.box.List())
}

// OpenArchiveShaders memory maps a kar archive of shaders
func OpenArchiveShaders(path string) (*ArchiveShaders, error) {
	file, err := mmap.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "map shader archive %s", path)
	}
	archive, err := kar.Open(file)
	if err != nil {
		file.Close()
		return nil, errors.Wrapf(err, "open shader archive %s", path)
	}
	return &ArchiveShaders{
		file:    file,
		archive: archive,
	}, nil
}

// ArchiveShaders loads shader bytecode from a memory mapped kar archive
type ArchiveShaders struct {
	file    *mmap.ReaderAt
	archive *kar.Archive
}

// Load implements ShaderSource
func (a *ArchiveShaders) Load(name string) ([]byte, error) {
	return a.archive.ReadAll(name)
}

// List returns the compiled shaders with a recognised type
func (a *ArchiveShaders) List() []string {
	return compiledShaders(a.archive.Names())
}

// Close unmaps the archive
func (a *ArchiveShaders) Close() error {
	return a.file.Close()
}

func compiledShaders(names []string) []string {
	var shaders []string
	for _, name := range names {
		name = filepath.ToSlash(name)
		if strings.HasPrefix(filepath.Base(name), ".") {
			continue
		}
		if shaderTypeOf(filepath.Base(name)) != UnknownShaderType {
			shaders = append(shaders, name)
		}
	}
	sort.Strings(shaders)
	return shaders
}
