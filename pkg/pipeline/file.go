// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"io/fs"
	"path/filepath"
	"time"
)

const DefaultFileMode fs.FileMode = 0o644

// File is a single file flowing through a Stream. Path normally is absolute and lives under
// Base, so Relative is the part that transforms like Rename operate on and Dest recreates.
type File struct {
	Cwd      string
	Base     string
	Path     string
	Mode     fs.FileMode
	ModTime  time.Time
	Contents []byte
}

func (f *File) Relative() string {
	rel, err := filepath.Rel(f.Base, f.Path)
	if err != nil {
		return filepath.Base(f.Path)
	}

	return rel
}

// SetRelative moves the file to rel under its current Base.
func (f *File) SetRelative(rel string) {
	f.Path = filepath.Join(f.Base, rel)
}
