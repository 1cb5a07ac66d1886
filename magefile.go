//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binary  = "kikitori"
	mainPkg = "./cmd/kikitori"
)

// Default target to run when none is specified
var Default = Build

// Build compiles the kikitori binary into the working directory
func Build() error {
	fmt.Println("Building", binary)
	return sh.RunV("go", "build", "-o", binary, mainPkg)
}

// Test runs all package tests
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Vet runs go vet over all packages
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Install installs kikitori into GOBIN after the tests pass
func Install() error {
	mg.Deps(Test)
	return sh.RunV("go", "install", mainPkg)
}

// Clean removes the built binary
func Clean() error {
	if err := sh.Rm(binary); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
