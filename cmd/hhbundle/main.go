// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/samber/lo"
	slogmulti "github.com/samber/slog-multi"
	"github.com/urfave/cli/v2"
	"go.githedgehog.com/bundler/pkg/bundle"
	"go.githedgehog.com/bundler/pkg/pipeline"
	"go.githedgehog.com/bundler/pkg/version"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	FlagCatGlobal   = "Global options:"
	FlagNameFrom    = "from"
	FlagNameTo      = "to"
	FlagNameDest    = "dest"
	FlagNameRoot    = "root"
	FlagNameSrc     = "src"
	FlagNameOut     = "out"
	FlagNameLogFile = "log-file"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx); err != nil {
		slog.Error(err.Error())
		stop()
		os.Exit(1) //nolint:gocritic
	}
}

func Run(ctx context.Context) error {
	var verbose, brief bool
	verboseFlag := &cli.BoolFlag{
		Name:        "verbose",
		Aliases:     []string{"v"},
		Usage:       "verbose output (includes debug)",
		EnvVars:     []string{"HHBUNDLE_VERBOSE"},
		Destination: &verbose,
		Category:    FlagCatGlobal,
	}
	briefFlag := &cli.BoolFlag{
		Name:        "brief",
		Aliases:     []string{"b"},
		Usage:       "brief output (only warn and error)",
		EnvVars:     []string{"HHBUNDLE_BRIEF"},
		Destination: &brief,
		Category:    FlagCatGlobal,
	}

	defaultWorkDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current dir: %w", err)
	}

	var workDir string
	workDirFlag := &cli.StringFlag{
		Name:        "workdir",
		Usage:       "run as if hhbundle was started in `PATH` instead of the current working directory",
		EnvVars:     []string{"HHBUNDLE_WORK_DIR"},
		Value:       defaultWorkDir,
		Destination: &workDir,
		Category:    FlagCatGlobal,
	}

	var logFilePath string
	logFileFlag := &cli.StringFlag{
		Name:        FlagNameLogFile,
		Usage:       "additionally write debug logs to `FILE` (rotated)",
		EnvVars:     []string{"HHBUNDLE_LOG_FILE"},
		Destination: &logFilePath,
		Category:    FlagCatGlobal,
	}

	var logFile *lumberjack.Logger

	before := func(_ *cli.Context) error {
		if verbose && brief {
			return cli.Exit("verbose and brief are mutually exclusive", 1)
		}

		logLevel := slog.LevelInfo
		if verbose {
			logLevel = slog.LevelDebug
		} else if brief {
			logLevel = slog.LevelWarn
		}

		logW := os.Stderr
		handlers := []slog.Handler{
			tint.NewHandler(logW, &tint.Options{
				Level:      logLevel,
				TimeFormat: time.TimeOnly,
				NoColor:    !isatty.IsTerminal(logW.Fd()),
			}),
		}

		if logFilePath != "" {
			logFile = &lumberjack.Logger{
				Filename:   logFilePath,
				MaxSize:    5, // MB
				MaxBackups: 4,
				MaxAge:     30, // days
				Compress:   true,
				FileMode:   0o644,
			}

			handlers = append(handlers, slog.NewTextHandler(logFile, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}))
		}

		slog.SetDefault(slog.New(slogmulti.Fanout(handlers...)))

		if workDir != defaultWorkDir {
			if err := os.Chdir(workDir); err != nil {
				return fmt.Errorf("changing dir to %q: %w", workDir, err)
			}
		}

		args := []any{
			"version", version.Version,
		}

		if workDir != defaultWorkDir {
			args = append(args, "workdir", workDir)
		}

		slog.Debug("Hedgehog Bundler", args...)

		return nil
	}

	defaultFlags := []cli.Flag{
		workDirFlag,
		verboseFlag,
		briefFlag,
		logFileFlag,
	}

	var from, to string
	var dest string
	var root string
	var src, out string

	cli.VersionFlag.(*cli.BoolFlag).Aliases = []string{"V"}
	app := &cli.App{
		Name:                   "hhbundle",
		Usage:                  "hedgehog bundle build helpers",
		Version:                version.Version,
		Suggest:                true,
		UseShortOptionHandling: true,
		EnableBashCompletion:   true,
		Commands: []*cli.Command{
			{
				Name:  "copy",
				Usage: "copy files matching a glob into a directory",
				Flags: flatten(defaultFlags, []cli.Flag{
					&cli.StringFlag{
						Name:        FlagNameFrom,
						Aliases:     []string{"f"},
						Usage:       "source file or glob",
						Required:    true,
						Destination: &from,
					},
					&cli.StringFlag{
						Name:        FlagNameTo,
						Aliases:     []string{"t"},
						Usage:       "destination `DIR`",
						Required:    true,
						Destination: &to,
					},
				}),
				Before: before,
				Action: func(_ *cli.Context) error {
					return bundle.CopyFile(ctx, from, to, func() {
						slog.Info("Copied", "from", from, "to", to)
					})
				},
			},
			{
				Name:      "minify",
				Usage:     "save files matching globs as .min files into a directory",
				ArgsUsage: "GLOB...",
				Flags: flatten(defaultFlags, []cli.Flag{
					&cli.StringFlag{
						Name:        FlagNameDest,
						Aliases:     []string{"d"},
						Usage:       "destination `DIR`",
						Required:    true,
						Destination: &dest,
					},
				}),
				Before: before,
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return cli.Exit("at least one glob is required", 1)
					}

					files, err := bundle.SaveStreamAsMinifiedFile(pipeline.Src(ctx, c.Args().Slice()), dest).Collect()
					if err != nil {
						return fmt.Errorf("saving minified files: %w", err)
					}

					for _, f := range files {
						slog.Info("Saved", "file", f.Relative(), "dest", dest)
					}

					return nil
				},
			},
			{
				Name:      "size",
				Usage:     "print human readable sizes of files",
				ArgsUsage: "FILE...",
				Flags: flatten(defaultFlags, []cli.Flag{
					&cli.StringFlag{
						Name:        FlagNameRoot,
						Aliases:     []string{"r"},
						Usage:       "resolve files relative to `DIR`",
						Destination: &root,
					},
				}),
				Before: before,
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return cli.Exit("at least one file is required", 1)
					}

					if err := bundle.LogFilesSize(os.Stdout, c.Args().Slice(), root); err != nil {
						return fmt.Errorf("logging files size: %w", err)
					}

					return nil
				},
			},
			{
				Name:      "clean",
				Usage:     "remove everything matching a glob inside a directory",
				ArgsUsage: "PATTERN",
				Flags: flatten(defaultFlags, []cli.Flag{
					&cli.StringFlag{
						Name:        FlagNameRoot,
						Aliases:     []string{"r"},
						Usage:       "directory to clean in",
						Value:       ".",
						Destination: &root,
					},
				}),
				Before: before,
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("exactly one pattern is required", 1)
					}

					removed, err := bundle.Clean(root, c.Args().First())
					if err != nil {
						return fmt.Errorf("cleaning: %w", err)
					}

					slog.Info("Cleaned", "root", root, "removed", len(removed))

					return nil
				},
			},
			{
				Name:  "archive",
				Usage: "pack a bundle directory into a .tar.gz",
				Flags: flatten(defaultFlags, []cli.Flag{
					&cli.StringFlag{
						Name:        FlagNameSrc,
						Aliases:     []string{"s"},
						Usage:       "bundle `DIR`",
						Required:    true,
						Destination: &src,
					},
					&cli.StringFlag{
						Name:        FlagNameOut,
						Aliases:     []string{"o"},
						Usage:       "target `FILE` (default: <src>.tar.gz)",
						Destination: &out,
					},
				}),
				Before: before,
				Action: func(_ *cli.Context) error {
					if out == "" {
						name, err := bundle.ArchiveName(src)
						if err != nil {
							return fmt.Errorf("naming archive: %w", err)
						}
						out = name
					}

					if err := bundle.ArchiveTarGz(ctx, src, out); err != nil {
						return fmt.Errorf("archiving bundle: %w", err)
					}

					return nil
				},
			},
		},
	}

	err = app.Run(os.Args)

	if logFile != nil {
		logFile.Close()
	}

	return err //nolint:wrapcheck
}

func flatten[T any, Slice ~[]T](collection ...Slice) Slice {
	return lo.Flatten(collection)
}
