//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Compiles the GLSL sources into the SPIR-V files the renderer loads.
func (Build) Shaders() error {
	return buildShaders()
}

// Compiles the shaders and then the binary.
func (Build) Engine() error {
	mg.Deps(Build.Shaders)
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/vkscene", "."), withStream()); err != nil {
		return err
	}
	return nil
}

func buildShaders() error {
	shaders := [][2]string{
		{"shaders/shader.vert", "shaders/vertex.spv"},
		{"shaders/shader.frag", "shaders/fragment.spv"},
	}
	for _, s := range shaders {
		if _, err := executeCmd("glslc", withArgs(s[0], "-o", s[1]), withStream()); err != nil {
			return err
		}
	}
	return nil
}
