//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Build targets for rowmap.
//
// Usage:
//
//	mage build          Compile the rowmap binary to bin/
//	mage buildDuckDB    Compile with cgo so the duckdb backend is available
//	mage test:all       Run all tests
//	mage test:race      Run all tests with the race detector
//	mage test:cover     Write a coverage profile to bin/
//	mage lint           Run golangci-lint
//	mage generate       Regenerate stringer output
//	mage clean          Remove build artifacts
//	mage install        Install rowmap to GOPATH/bin
//	mage stats          Print Go line counts per layer
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "rowmap"
	binaryDir  = "bin"
	cmdDir     = "./cmd/rowmap"
)

// Build compiles the rowmap binary to bin/ without cgo. Only the sqlite
// backend is linked.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	env := map[string]string{"CGO_ENABLED": "0"}
	return sh.RunWithV(env, binGo, "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// BuildDuckDB compiles the rowmap binary with cgo, linking the duckdb
// driver as well.
func BuildDuckDB() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	env := map[string]string{"CGO_ENABLED": "1"}
	return sh.RunWithV(env, binGo, "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}

// Generate runs go generate (stringer) over the module.
func Generate() error {
	return sh.RunV(binGo, "generate", "./...")
}
