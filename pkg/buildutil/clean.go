// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package buildutil

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var ErrUnsafeClean = errors.New("refusing to remove current working directory or its parents")

// Clean removes everything matching pattern inside rootDir and returns the removed paths.
func Clean(rootDir, pattern string) ([]string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting current dir: %w", err)
	}

	root := rootDir
	if !filepath.IsAbs(root) {
		root = filepath.Join(cwd, root)
	}

	matches, err := NewGlob(root, pattern).Expand()
	if err != nil {
		return nil, err
	}

	for _, match := range matches {
		if isSameOrParent(match, cwd) {
			return nil, fmt.Errorf("%w: %s", ErrUnsafeClean, match)
		}
	}

	// children first, so nested matches are gone before their parent dirs
	slices.SortFunc(matches, func(a, b string) int {
		return strings.Compare(b, a)
	})

	removed := []string{}
	for _, match := range matches {
		if err := os.RemoveAll(match); err != nil {
			return removed, fmt.Errorf("removing %q: %w", match, err)
		}

		slog.Debug("Removed", "path", match)
		removed = append(removed, match)
	}

	slices.Sort(removed)

	return removed, nil
}

func isSameOrParent(path, child string) bool {
	rel, err := filepath.Rel(path, child)
	if err != nil {
		return false
	}

	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
