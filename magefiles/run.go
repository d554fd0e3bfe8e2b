//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Compiles the shaders and runs the demo with config.toml.
func (Run) Engine() error {
	if err := buildShaders(); err != nil {
		return err
	}
	fmt.Println("Run engine...")
	if _, err := executeCmd("go", withArgs("run", ".", "-config", "config.toml"), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the unit tests. None of them need a GPU.
func Test() error {
	_, err := executeCmd("go", withArgs("test", "./..."), withStream())
	return err
}

// Removes the compiled shaders and the binary.
func Clean() error {
	if _, err := executeCmd("rm", withArgs("-rf", "bin")); err != nil {
		return err
	}
	_, err := executeCmd("rm", withArgs("-f", "vertex.spv", "fragment.spv"), withDir("shaders"))
	return err
}
