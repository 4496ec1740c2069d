// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

// Package bundle holds the helpers build tasks use to copy, minify and report bundle files.
package bundle

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/samber/lo"
	"go.githedgehog.com/bundler/pkg/buildutil"
	"go.githedgehog.com/bundler/pkg/pipeline"
)

const MinSuffix = ".min"

// Clean removes everything matching pattern inside rootDir.
var Clean = buildutil.Clean

// CopyFile copies the files matching from into the to dir. onDone, if set, is called once
// after everything has been written.
func CopyFile(ctx context.Context, from, to string, onDone func()) error {
	if err := pipeline.Src(ctx, []string{from}).Pipe(pipeline.Dest(to)).Wait(); err != nil {
		return fmt.Errorf("copying %q to %q: %w", from, to, err)
	}

	if onDone != nil {
		onDone()
	}

	return nil
}

// SaveStreamAsMinifiedFile adds the ".min" suffix to every file of stream and writes them into
// destination. The returned stream carries the written files.
func SaveStreamAsMinifiedFile(stream *pipeline.Stream, destination string) *pipeline.Stream {
	return stream.
		Pipe(pipeline.Rename(pipeline.RenameOpts{Suffix: MinSuffix})).
		Pipe(pipeline.Dest(destination))
}

// GetFileSize returns the human readable size of the file at path.
func GetFileSize(path string) (string, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %q: %w", path, err)
	}

	return FormatSize(stat.Size()), nil
}

type fileSize struct {
	name string
	size string
}

// FilesSizeSummary returns a "<name>: <size>" line for every file resolved against rootDir.
func FilesSizeSummary(files []string, rootDir string) (string, error) {
	sizes := make([]fileSize, 0, len(files))
	for _, file := range files {
		path := filepath.Join(rootDir, file)

		size, err := GetFileSize(path)
		if err != nil {
			return "", err
		}

		sizes = append(sizes, fileSize{name: filepath.Base(path), size: size})
	}

	lines := lo.Map(sizes, func(fs fileSize, _ int) string {
		return fs.name + ": " + fs.size
	})

	return strings.Join(lines, "\n"), nil
}

// LogFilesSize writes the sizes of files in rootDir to w as a green block:
//
//	[15:04:05]
//	ckeditor.min.js: 192.43 KB
//	ckeditor.min.css: 5.38 KB
func LogFilesSize(w io.Writer, files []string, rootDir string) error {
	summary, err := FilesSizeSummary(files, rootDir)
	if err != nil {
		return err
	}

	slog.Debug("Files size", "root", rootDir, "files", files)

	green := color.New(color.FgGreen)
	gray := color.New(color.FgHiBlack)
	if isTerminal(w) {
		green.EnableColor()
		gray.EnableColor()
	} else {
		green.DisableColor()
		gray.DisableColor()
	}

	if _, err := fmt.Fprintf(w, "[%s] %s\n", gray.Sprint(time.Now().Format(time.TimeOnly)), green.Sprint("\n"+summary)); err != nil {
		return fmt.Errorf("writing files size: %w", err)
	}

	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
