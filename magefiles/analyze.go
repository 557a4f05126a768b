//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Sample scores the bundled sample mentions for September 2026 without
// storing the run.
func Sample() error {
	mg.Deps(Build)
	bin := filepath.Join(binDir, binName)
	return sh.RunV(bin, "analyze",
		"--registry", "reference/registry.yaml",
		"--mentions", "reference/sample-mentions.json",
		"--start", "2026-09-01", "--end", "2026-09-30",
		"--no-store", "--scores")
}

// SampleCustom scores the sample mentions with per-entity windows and stores
// the run in the configured database.
func SampleCustom() error {
	mg.Deps(Build, Init)
	bin := filepath.Join(binDir, binName)
	if err := sh.RunV(bin, "analyze",
		"--registry", "reference/registry.yaml",
		"--mentions", "reference/sample-mentions.json",
		"--periods", "reference/periods-custom.yaml",
		"--name", "sample custom periods"); err != nil {
		return err
	}
	fmt.Println("List stored runs with: bin/iedi-engine results list")
	return nil
}
