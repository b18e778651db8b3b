// Command swissc compiles a SwissBASIC source file (and an optional
// asset-bundle JSON file) into an iNES ROM image (spec §6). Grounded on the
// teacher repo's manual os.Args/flag handling style (see DESIGN.md's
// "Ambient stack" entry on CLI); no CLI framework in the retrieved pack is
// actually exercised for a single-shot source->binary invocation.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"

	"github.com/kd7tck/swissarmyNES/internal/compiler"
	"github.com/kd7tck/swissarmyNES/internal/project"
)

func main() {
	var (
		out    string
		assets string
	)
	flag.StringVar(&out, "o", "out.nes", "output ROM path")
	flag.StringVar(&assets, "assets", "", "optional assets.json path")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: swissc [-o out.nes] [-assets assets.json] <source.swiss>")
		os.Exit(2)
	}
	mainPath := flag.Arg(0)

	src, err := os.ReadFile(mainPath)
	if err != nil {
		glog.Exitf("swissc: %v", err)
	}

	bundle, err := loadBundle(assets)
	if err != nil {
		glog.Exitf("swissc: %v", err)
	}

	provider := fileSourceProvider(filepath.Dir(mainPath))

	rom, err := compiler.Compile(string(src), provider, bundle)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := os.WriteFile(out, rom, 0o644); err != nil {
		glog.Exitf("swissc: writing %s: %v", out, err)
	}
}

func loadBundle(path string) (*project.Bundle, error) {
	if path == "" {
		return &project.Bundle{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading assets bundle: %w", err)
	}
	var b project.Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parsing assets bundle: %w", err)
	}
	return &b, nil
}

// fileSourceProvider resolves INCLUDE paths relative to the main source
// file's directory, the filesystem-backed implementation of the core's
// injected source_provider contract (spec §6).
func fileSourceProvider(baseDir string) compiler.SourceProvider {
	return func(path string) (string, error) {
		data, err := os.ReadFile(filepath.Join(baseDir, path))
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}
