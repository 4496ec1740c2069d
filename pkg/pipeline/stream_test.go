// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.githedgehog.com/bundler/pkg/pipeline"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func relatives(files []*pipeline.File) []string {
	res := []string{}
	for _, f := range files {
		res = append(res, f.Relative())
	}

	return res
}

func TestSrc(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.js":          "a",
		"sub/b.js":      "b",
		"sub/c.css":     "c",
		"sub/deep/d.js": "d",
	})

	for _, test := range []struct {
		name     string
		patterns []string
		expected []string
	}{
		{
			name:     "recursive",
			patterns: []string{"**/*.js"},
			expected: []string{"a.js", "sub/b.js", "sub/deep/d.js"},
		},
		{
			name:     "exclude",
			patterns: []string{"**/*.js", "!**/deep/**"},
			expected: []string{"a.js", "sub/b.js"},
		},
		{
			name:     "based on glob parent",
			patterns: []string{"sub/*"},
			expected: []string{"b.js", "c.css"},
		},
		{
			name:     "literal",
			patterns: []string{"sub/deep/d.js"},
			expected: []string{"d.js"},
		},
		{
			name:     "deduplicated",
			patterns: []string{"a.js", "*.js"},
			expected: []string{"a.js"},
		},
		{
			name:     "glob without matches",
			patterns: []string{"**/*.png"},
			expected: []string{},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			files, err := pipeline.Src(context.Background(), test.patterns, pipeline.WithCwd(dir)).Collect()
			require.NoError(t, err)
			require.ElementsMatch(t, test.expected, relatives(files))
		})
	}
}

func TestSrcContents(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.txt": "hello"})

	files, err := pipeline.Src(context.Background(), []string{filepath.Join(dir, "a.txt")}).Collect()
	require.NoError(t, err)
	require.Len(t, files, 1)

	assert.Equal(t, []byte("hello"), files[0].Contents)
	assert.Equal(t, filepath.Join(dir, "a.txt"), files[0].Path)
	assert.Equal(t, dir, files[0].Base)
	assert.Equal(t, os.FileMode(0o644), files[0].Mode)
	assert.False(t, files[0].ModTime.IsZero())
}

func TestSrcMetaCharsInCwd(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ckeditor[v1]")
	writeFiles(t, dir, map[string]string{
		"src/a.js":       "a",
		"src/lang/en.js": "en",
		"src/b.css":      "b",
	})

	files, err := pipeline.Src(context.Background(), []string{"src/a.js"}, pipeline.WithCwd(dir)).Collect()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(dir, "src"), files[0].Base)
	assert.Equal(t, "a.js", files[0].Relative())

	files, err = pipeline.Src(context.Background(), []string{"src/**/*", "!src/*.css"}, pipeline.WithCwd(dir)).Collect()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a.js", filepath.Join("lang", "en.js")}, relatives(files))

	files, err = pipeline.Src(context.Background(), []string{"../b.css"}, pipeline.WithCwd(filepath.Join(dir, "src", "lang"))).Collect()
	require.NoError(t, err)
	require.Equal(t, []string{"b.css"}, relatives(files))
}

func TestSrcMissing(t *testing.T) {
	dir := t.TempDir()

	err := pipeline.Src(context.Background(), []string{"missing.js"}, pipeline.WithCwd(dir)).Wait()
	require.ErrorIs(t, err, pipeline.ErrFileNotFound)

	files, err := pipeline.Src(context.Background(), []string{"missing.js"}, pipeline.WithCwd(dir), pipeline.WithAllowEmpty()).Collect()
	require.NoError(t, err)
	require.Empty(t, files)

	err = pipeline.Src(context.Background(), []string{"!*.js"}, pipeline.WithCwd(dir)).Wait()
	require.ErrorIs(t, err, pipeline.ErrNoPatterns)
}

func TestPipe(t *testing.T) {
	in := []*pipeline.File{
		{Path: "a.js"},
		{Path: "b.css"},
		{Path: "c.js"},
	}

	files, err := pipeline.FromFiles(context.Background(), in...).
		Pipe(func(_ context.Context, f *pipeline.File) (*pipeline.File, error) {
			if filepath.Ext(f.Path) != ".js" {
				return nil, nil
			}

			return f, nil
		}).
		Pipe(func(_ context.Context, f *pipeline.File) (*pipeline.File, error) {
			f.Contents = []byte("seen")

			return f, nil
		}).
		Collect()
	require.NoError(t, err)
	require.Equal(t, []string{"a.js", "c.js"}, relatives(files))

	for _, f := range files {
		assert.Equal(t, []byte("seen"), f.Contents)
	}
}

func TestPipeError(t *testing.T) {
	errBroken := errors.New("broken")

	calls := 0
	err := pipeline.FromFiles(context.Background(), &pipeline.File{Path: "a"}, &pipeline.File{Path: "b"}, &pipeline.File{Path: "c"}).
		Pipe(func(_ context.Context, f *pipeline.File) (*pipeline.File, error) {
			calls++
			if f.Path == "b" {
				return nil, errBroken
			}

			return f, nil
		}).
		Wait()
	require.ErrorIs(t, err, errBroken)
	require.Equal(t, 2, calls)
}

func TestCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pipeline.FromFiles(ctx, &pipeline.File{Path: "a"}, &pipeline.File{Path: "b"}, &pipeline.File{Path: "c"}).
		Pipe(func(_ context.Context, f *pipeline.File) (*pipeline.File, error) {
			return f, nil
		}).
		Wait()
	require.ErrorIs(t, err, context.Canceled)
}

func TestDone(t *testing.T) {
	done := pipeline.FromFiles(context.Background(), &pipeline.File{Path: "a"}).Done()

	require.NoError(t, <-done)

	_, open := <-done
	require.False(t, open)
}

func TestConsumedTwice(t *testing.T) {
	s := pipeline.FromFiles(context.Background(), &pipeline.File{Path: "a"})
	require.NoError(t, s.Wait())

	assert.Panics(t, func() {
		_ = s.Wait()
	})
}
