// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"path/filepath"
	"strings"
)

// RenameOpts describes how the relative path of a file is rewritten. Empty fields keep
// the corresponding part of the original path.
type RenameOpts struct {
	Dirname  string
	Prefix   string
	Basename string
	Suffix   string
	Extname  string
}

func Rename(opts RenameOpts) Transform {
	return func(_ context.Context, f *File) (*File, error) {
		f.SetRelative(RenamePath(f.Relative(), opts))

		return f, nil
	}
}

// RenamePath applies opts to rel, the result is dirname/prefix+basename+suffix+extname.
func RenamePath(rel string, opts RenameOpts) string {
	dir, base := filepath.Split(rel)
	ext := Extname(base)
	base = strings.TrimSuffix(base, ext)

	if opts.Dirname != "" {
		dir = opts.Dirname
	}
	if opts.Basename != "" {
		base = opts.Basename
	}
	if opts.Extname != "" {
		ext = opts.Extname
	}

	return filepath.Join(dir, opts.Prefix+base+opts.Suffix+ext)
}

// Extname returns the extension of name starting at its last dot. Leading dots are part of
// the name, so ".babelrc" has no extension.
func Extname(name string) string {
	rest := strings.TrimLeft(filepath.Base(name), ".")

	idx := strings.LastIndex(rest, ".")
	if idx < 0 {
		return ""
	}

	return rest[idx:]
}
