// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"compress/gzip"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mholt/archives"
)

// ArchiveName is the default tarball path for srcDir: "<abs srcDir>.tar.gz".
func ArchiveName(srcDir string) (string, error) {
	abs, err := filepath.Abs(srcDir)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", srcDir, err)
	}

	return abs + ".tar.gz", nil
}

// ArchiveTarGz packs srcDir into a gzip'ed tarball at dst with the dir's name as the top entry.
func ArchiveTarGz(ctx context.Context, srcDir, dst string) error {
	abs, err := filepath.Abs(srcDir)
	if err != nil {
		return fmt.Errorf("resolving %q: %w", srcDir, err)
	}

	files, err := archives.FilesFromDisk(ctx, nil, map[string]string{
		abs: filepath.Base(abs),
	})
	if err != nil {
		return fmt.Errorf("getting files for bundle %s: %w", srcDir, err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating dir for %q: %w", dst, err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating target %q: %w", dst, err)
	}
	defer out.Close()

	format := archives.CompressedArchive{
		Compression: archives.Gz{
			Multithreaded:    true,
			CompressionLevel: gzip.BestCompression,
		},
		Archival: archives.Tar{},
	}

	if err := format.Archive(ctx, out, files); err != nil {
		return fmt.Errorf("archiving %s: %w", srcDir, err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %q: %w", dst, err)
	}

	size, err := GetFileSize(dst)
	if err != nil {
		return err
	}

	slog.Info("Bundle archived", "src", srcDir, "dst", dst, "size", size)

	return nil
}
