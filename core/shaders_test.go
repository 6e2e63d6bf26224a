// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/pkg/errors"

	"github.com/devblok/learnvk/core"
	"github.com/devblok/learnvk/utility/kar"
)

func writeShaders(c *qt.C, dir string, files map[string][]byte) {
	for name, content := range files {
		c.Assert(os.WriteFile(filepath.Join(dir, name), content, 0644), qt.IsNil)
	}
}

func TestDirectoryShaders(t *testing.T) {
	c := qt.New(t)

	dir := c.TempDir()
	writeShaders(c, dir, map[string][]byte{
		"shader.vert.spv": spirv(5),
		"shader.frag.spv": spirv(7),
		"shader.vert":     []byte("#version 450\n"),
		"README":          []byte("compiled with glslc\n"),
	})

	shaders, err := core.NewDirectoryShaders(dir)
	c.Assert(err, qt.IsNil)
	c.Assert(shaders.List(), qt.DeepEquals, []string{"shader.frag.spv", "shader.vert.spv"})

	code, err := shaders.Load("shader.frag.spv")
	c.Assert(err, qt.IsNil)
	c.Assert(code, qt.DeepEquals, spirv(7))
	c.Assert(core.ValidateSpirv(code), qt.IsNil)

	_, err = shaders.Load("missing.vert.spv")
	c.Assert(err, qt.ErrorMatches, `shader missing.vert.spv not found in .*`)
}

func TestArchiveShaders(t *testing.T) {
	c := qt.New(t)

	builder, err := kar.NewBuilder(kar.Header{Author: "devblok", Version: 1})
	c.Assert(err, qt.IsNil)
	defer builder.Close()
	c.Assert(builder.Add("shader.vert.spv", bytes.NewReader(spirv(5))), qt.IsNil)
	c.Assert(builder.Add("shader.frag.spv", bytes.NewReader(spirv(9))), qt.IsNil)
	c.Assert(builder.Add("notes.txt", bytes.NewReader([]byte("nothing to see"))), qt.IsNil)

	var buf bytes.Buffer
	_, err = builder.WriteTo(&buf)
	c.Assert(err, qt.IsNil)

	path := filepath.Join(c.TempDir(), "shaders.kar")
	c.Assert(os.WriteFile(path, buf.Bytes(), 0644), qt.IsNil)

	cfg := core.DefaultConfiguration().Renderer
	cfg.ShaderArchive = path
	source, err := core.NewShaderSource(cfg)
	c.Assert(err, qt.IsNil)
	shaders, ok := source.(*core.ArchiveShaders)
	c.Assert(ok, qt.IsTrue)
	defer shaders.Close()

	c.Assert(shaders.List(), qt.DeepEquals, []string{"shader.frag.spv", "shader.vert.spv"})
	code, err := shaders.Load("shader.frag.spv")
	c.Assert(err, qt.IsNil)
	c.Assert(code, qt.DeepEquals, spirv(9))

	_, err = shaders.Load("shader.geom.spv")
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestArchiveShadersRejectsOtherFiles(t *testing.T) {
	c := qt.New(t)

	path := filepath.Join(c.TempDir(), "shaders.kar")
	c.Assert(os.WriteFile(path, []byte("definitely not an archive, just some bytes"), 0644), qt.IsNil)

	_, err := core.OpenArchiveShaders(path)
	c.Assert(err, qt.ErrorMatches, `open shader archive .*`)
	c.Assert(errors.Is(err, kar.ErrFileFormat), qt.IsTrue)
}

func TestRendererWithArchiveShaders(t *testing.T) {
	c := qt.New(t)

	builder, err := kar.NewBuilder(kar.Header{Author: "devblok", Version: 1})
	c.Assert(err, qt.IsNil)
	defer builder.Close()
	for name, code := range defaultShaders() {
		c.Assert(builder.Add(name, bytes.NewReader(code)), qt.IsNil)
	}
	path := filepath.Join(c.TempDir(), "shaders.kar")
	file, err := os.Create(path)
	c.Assert(err, qt.IsNil)
	_, err = builder.WriteTo(file)
	c.Assert(err, qt.IsNil)
	c.Assert(file.Close(), qt.IsNil)

	shaders, err := core.OpenArchiveShaders(path)
	c.Assert(err, qt.IsNil)
	defer shaders.Close()

	d := newMockDriver(eligibleDevice("gpu"))
	r := core.NewRenderer(testConfiguration(false), d, newMockWindow(), shaders)
	r.SetLogger(nullLogger())
	c.Assert(r.Initialise(), qt.IsNil)
	c.Assert(r.Tick(), qt.IsNil)
	c.Assert(r.Shutdown(), qt.IsNil)
	c.Assert(d.problems, qt.HasLen, 0)
}
