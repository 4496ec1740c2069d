// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package buildutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Glob is a pattern anchored at a literal Root directory. Root is never interpreted as glob
// syntax, so directories named like "ckeditor[v1]" work as working dirs.
type Glob struct {
	Root    string
	Pattern string
}

// NewGlob anchors pattern at cwd, or at the filesystem root for absolute patterns. Leading
// ".." segments move the root up instead of staying in the pattern.
func NewGlob(cwd, pattern string) Glob {
	root := cwd
	if filepath.IsAbs(pattern) {
		vol := filepath.VolumeName(pattern)
		root = vol + string(filepath.Separator)
		pattern = pattern[len(vol):]
	}

	rel := strings.TrimLeft(filepath.ToSlash(filepath.Clean(pattern)), "/")
	for rel == ".." || strings.HasPrefix(rel, "../") {
		root = filepath.Dir(root)
		rel = strings.TrimPrefix(strings.TrimPrefix(rel, ".."), "/")
	}
	if rel == "" {
		rel = "."
	}

	return Glob{Root: root, Pattern: rel}
}

// Expand returns the absolute paths matching the glob.
func (g Glob) Expand(opts ...doublestar.GlobOption) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(g.Root), g.Pattern, opts...)
	if err != nil {
		return nil, fmt.Errorf("matching %q in %q: %w", g.Pattern, g.Root, err)
	}

	res := make([]string, 0, len(matches))
	for _, match := range matches {
		res = append(res, filepath.Join(g.Root, filepath.FromSlash(match)))
	}

	return res, nil
}

// Base is the directory up to the first pattern segment with glob syntax.
func (g Glob) Base() string {
	base, _ := doublestar.SplitPattern(g.Pattern)

	return filepath.Join(g.Root, filepath.FromSlash(base))
}

// Match reports whether the absolute path is matched by the glob.
func (g Glob) Match(path string) bool {
	rel, err := filepath.Rel(g.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}

	ok, _ := doublestar.Match(g.Pattern, filepath.ToSlash(rel))

	return ok
}

// HasMeta reports whether the pattern contains glob syntax.
func (g Glob) HasMeta() bool {
	return strings.ContainsAny(g.Pattern, "*?[{")
}
