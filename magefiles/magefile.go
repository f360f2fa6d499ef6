//go:build mage

// Package main contains Mage build targets for arxiv-assistant developer tooling.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir      = "bin"
	binName     = "arxiv-assistant"
	cmdPkg      = "./cmd/arxiv-assistant"
	downloadDir = "arxiv_downloads"
	configFile  = "arxiv-assistant.yaml"
)

// configSkeleton is written by Init. Every key is optional.
const configSkeleton = `# arxiv-assistant configuration. Environment variables with the
# ARXIV_ASSISTANT_ prefix override these values (ARXIV_ASSISTANT_AI_MODEL).
download_dir: arxiv_downloads
max_results: 10
sort_by: submittedDate
sort_order: descending

ai:
  provider: gemini          # gemini or claude
  # model: gemini-2.5-pro-exp-03-25
  # max_tokens: 4096

http:
  timeout: 60s
  max_retries: 0            # retries on HTTP 429

serper:
  num_results: 10
`

// Init creates the download directory and a config skeleton. An existing
// config file is left alone.
func Init() error {
	if err := os.MkdirAll(downloadDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", downloadDir, err)
	}
	fmt.Println("  ", downloadDir)

	if _, err := os.Stat(configFile); err == nil {
		fmt.Printf("   %s (exists, kept)\n", configFile)
	} else {
		if err := os.WriteFile(configFile, []byte(configSkeleton), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", configFile, err)
		}
		fmt.Println("  ", configFile)
	}
	fmt.Println("Workspace initialized. Put API keys in .env or .secrets/.")
	return nil
}

// Build compiles the CLI binary into bin/, stamping the version from git.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || version == "" {
		version = "dev"
	}
	out := filepath.Join(binDir, binName)
	ldflags := "-X main.version=" + strings.TrimSpace(version)
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s (%s)\n", out, version)
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Install runs the tests and installs the binary into GOPATH/bin.
func Install() error {
	mg.Deps(Test)
	return sh.RunV("go", "install", "-ldflags", "-X main.version=dev", cmdPkg)
}

// Stats prints project metrics: Go production/test LOC and the PDFs in the
// download directory.
func Stats() error {
	prodLines, err := countGoLines(".", false)
	if err != nil {
		return err
	}
	testLines, err := countGoLines(".", true)
	if err != nil {
		return err
	}
	pdfs, bytes, err := countPDFs(downloadDir)
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	fmt.Printf("Downloaded PDFs:                %d (%.1f MB)\n", pdfs, float64(bytes)/(1<<20))
	return nil
}

// countGoLines counts non-blank lines in Go files, either tests or
// production files. Hidden and underscore-prefixed directories are skipped.
func countGoLines(root string, testOnly bool) (int, error) {
	total := 0
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		if strings.HasSuffix(path, "_test.go") != testOnly {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			if strings.TrimSpace(line) != "" {
				total++
			}
		}
		return nil
	})
	return total, err
}

// countPDFs reports the number and total size of PDFs under dir. A missing
// directory counts as empty.
func countPDFs(dir string) (int, int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("reading %s: %w", dir, err)
	}
	var n int
	var size int64
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		n++
		size += info.Size()
	}
	return n, size, nil
}
