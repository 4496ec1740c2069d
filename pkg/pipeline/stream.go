// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
	"go.githedgehog.com/bundler/pkg/buildutil"
	"golang.org/x/sync/errgroup"
)

var (
	ErrFileNotFound = errors.New("file not found with singular glob")
	ErrNoPatterns   = errors.New("no glob patterns to match")
)

// Transform is applied to every file of a stream. Returning a nil file drops it from the stream.
type Transform func(ctx context.Context, f *File) (*File, error)

// Stream is a one-shot ordered sequence of files. Every stage runs in its own goroutine of a
// shared errgroup, so the first failing stage cancels the whole chain.
type Stream struct {
	ctx      context.Context
	g        *errgroup.Group
	files    <-chan *File
	consumed atomic.Bool
}

type srcOpts struct {
	cwd        string
	allowEmpty bool
}

type SrcOption func(*srcOpts)

// WithCwd resolves relative patterns against dir instead of the process working dir.
func WithCwd(dir string) SrcOption {
	return func(o *srcOpts) {
		o.cwd = dir
	}
}

// WithAllowEmpty makes literal patterns without a match silently produce nothing.
func WithAllowEmpty() SrcOption {
	return func(o *srcOpts) {
		o.allowEmpty = true
	}
}

// Src emits the files matching patterns. Patterns starting with "!" exclude files matched by
// the others. Each file is based on the non-glob parent of the pattern that matched it.
func Src(ctx context.Context, patterns []string, opts ...SrcOption) *Stream {
	o := srcOpts{}
	for _, opt := range opts {
		opt(&o)
	}

	g, ctx := errgroup.WithContext(ctx)
	out := make(chan *File)

	g.Go(func() error {
		defer close(out)

		if o.cwd == "" {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current dir: %w", err)
			}
			o.cwd = cwd
		}

		files, err := expand(o.cwd, patterns, o.allowEmpty)
		if err != nil {
			return err
		}

		for _, f := range files {
			f.Contents, err = os.ReadFile(f.Path)
			if err != nil {
				return fmt.Errorf("reading %q: %w", f.Path, err)
			}

			slog.Debug("Source", "file", f.Relative(), "base", f.Base)

			select {
			case out <- f:
			case <-ctx.Done():
				return ctx.Err() //nolint:wrapcheck
			}
		}

		return nil
	})

	return &Stream{ctx: ctx, g: g, files: out}
}

// FromFiles emits the given in-memory files in order.
func FromFiles(ctx context.Context, files ...*File) *Stream {
	g, ctx := errgroup.WithContext(ctx)
	out := make(chan *File)

	g.Go(func() error {
		defer close(out)

		for _, f := range files {
			select {
			case out <- f:
			case <-ctx.Done():
				return ctx.Err() //nolint:wrapcheck
			}
		}

		return nil
	})

	return &Stream{ctx: ctx, g: g, files: out}
}

// Pipe returns a stream of the files produced by applying t to every file of s.
// s must not be used afterwards.
func (s *Stream) Pipe(t Transform) *Stream {
	in := s.take()
	out := make(chan *File)

	s.g.Go(func() error {
		defer close(out)

		for f := range in {
			if err := s.ctx.Err(); err != nil {
				return err //nolint:wrapcheck
			}

			res, err := t(s.ctx, f)
			if err != nil {
				return err
			}
			if res == nil {
				continue
			}

			select {
			case out <- res:
			case <-s.ctx.Done():
				return s.ctx.Err() //nolint:wrapcheck
			}
		}

		return nil
	})

	return &Stream{ctx: s.ctx, g: s.g, files: out}
}

// Wait drains the stream and returns the first error of any stage.
func (s *Stream) Wait() error {
	for range s.take() { //nolint:revive
	}

	return s.g.Wait() //nolint:wrapcheck
}

// Done drains the stream in the background and delivers the result of Wait once.
func (s *Stream) Done() <-chan error {
	done := make(chan error, 1)

	go func() {
		done <- s.Wait()
		close(done)
	}()

	return done
}

// Collect drains the stream and returns every file it emitted.
func (s *Stream) Collect() ([]*File, error) {
	files := []*File{}
	for f := range s.take() {
		files = append(files, f)
	}

	if err := s.g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck
	}

	return files, nil
}

func (s *Stream) take() <-chan *File {
	if s.consumed.Swap(true) {
		panic("pipeline: stream already consumed")
	}

	return s.files
}

func expand(cwd string, patterns []string, allowEmpty bool) ([]*File, error) {
	includes, excludes := []string{}, []buildutil.Glob{}
	for _, pattern := range patterns {
		if neg, ok := strings.CutPrefix(pattern, "!"); ok {
			excludes = append(excludes, buildutil.NewGlob(cwd, neg))
		} else if pattern != "" {
			includes = append(includes, pattern)
		}
	}

	if len(includes) == 0 {
		return nil, ErrNoPatterns
	}

	seen := map[string]bool{}
	files := []*File{}

	for _, pattern := range includes {
		glob := buildutil.NewGlob(cwd, pattern)

		matches, err := glob.Expand(doublestar.WithFilesOnly())
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		if len(matches) == 0 && !glob.HasMeta() && !allowEmpty {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, pattern)
		}

		base := glob.Base()

	next:
		for _, match := range matches {
			if seen[match] {
				continue
			}

			for _, exclude := range excludes {
				if exclude.Match(match) {
					continue next
				}
			}

			stat, err := os.Stat(match)
			if err != nil {
				return nil, fmt.Errorf("stat %q: %w", match, err)
			}

			seen[match] = true
			files = append(files, &File{
				Cwd:     cwd,
				Base:    base,
				Path:    match,
				Mode:    stat.Mode().Perm(),
				ModTime: stat.ModTime(),
			})
		}
	}

	return files, nil
}
