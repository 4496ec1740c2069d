// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Dest writes every file into dir keeping its relative path and rebases the file on dir,
// so the following stages see where it was written. Relative dirs resolve against the file's Cwd.
func Dest(dir string) Transform {
	return func(_ context.Context, f *File) (*File, error) {
		outDir := dir
		if !filepath.IsAbs(outDir) {
			cwd := f.Cwd
			if cwd == "" {
				var err error
				if cwd, err = os.Getwd(); err != nil {
					return nil, fmt.Errorf("getting current dir: %w", err)
				}
			}
			outDir = filepath.Join(cwd, outDir)
		}

		rel := f.Relative()
		target := filepath.Join(outDir, rel)

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, fmt.Errorf("creating dir for %q: %w", target, err)
		}

		mode := f.Mode
		if mode == 0 {
			mode = DefaultFileMode
		}

		if err := os.WriteFile(target, f.Contents, mode); err != nil {
			return nil, fmt.Errorf("writing %q: %w", target, err)
		}

		// WriteFile keeps the mode of an already existing file
		if err := os.Chmod(target, mode); err != nil {
			return nil, fmt.Errorf("chmod %q: %w", target, err)
		}

		if !f.ModTime.IsZero() {
			if err := os.Chtimes(target, f.ModTime, f.ModTime); err != nil {
				return nil, fmt.Errorf("setting times of %q: %w", target, err)
			}
		}

		slog.Debug("Written", "file", rel, "dest", outDir)

		f.Base = outDir
		f.Path = target

		return f, nil
	}
}
