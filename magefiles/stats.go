//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// layerLines is the line count of one package directory.
type layerLines struct {
	Prod int `json:"prod"`
	Test int `json:"test"`
}

// statsReport is the JSON record printed by Stats.
type statsReport struct {
	Layers map[string]*layerLines `json:"layers"`
	Prod   int                    `json:"go_loc_prod"`
	Test   int                    `json:"go_loc_test"`
	// Share of production lines in the mapping, dml and entity packages.
	CoreRatio float64 `json:"core_ratio"`
}

// coreLayers are the packages that make up the mapper itself.
var coreLayers = []string{"internal/mapping", "internal/dml", "internal/entity"}

// Stats prints Go lines of code per layer (cmd/rowmap, internal/mapping,
// internal/dml, pkg/types, ...), split into production and test, as JSON.
func Stats() error {
	report := statsReport{Layers: map[string]*layerLines{}}

	err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == "vendor" || path == ".git" || path == binaryDir || path == "magefiles" || strings.HasPrefix(path, "_") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		count, err := countLines(path)
		if err != nil {
			return fmt.Errorf("counting %s: %w", path, err)
		}

		layer := layerOf(path)
		l, ok := report.Layers[layer]
		if !ok {
			l = &layerLines{}
			report.Layers[layer] = l
		}
		if strings.HasSuffix(path, "_test.go") {
			l.Test += count
			report.Test += count
		} else {
			l.Prod += count
			report.Prod += count
		}
		return nil
	})
	if err != nil {
		return err
	}

	if report.Prod > 0 {
		core := 0
		for _, name := range coreLayers {
			if l, ok := report.Layers[name]; ok {
				core += l.Prod
			}
		}
		report.CoreRatio = float64(core) / float64(report.Prod)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// layerOf maps a file to its top two directories, e.g.
// internal/entity/manager.go to internal/entity. Root files map to ".".
func layerOf(path string) string {
	parts := strings.Split(filepath.ToSlash(filepath.Dir(path)), "/")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return strings.Join(parts, "/")
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}
