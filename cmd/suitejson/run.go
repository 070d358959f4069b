package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/boyter/gocodewalker"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rlch/suitejson"
	"github.com/rlch/suitejson/runner"
)

// Run command errors.
var (
	ErrNoSuiteFiles    = errors.New("no suite files found")
	ErrUnknownProgress = errors.New("unknown progress mode")
)

// Suite files are recognized by these suffixes.
var suiteSuffixes = []string{".suite.yaml", ".suite.yml"}

// Progress modes.
const (
	progressDots    = "dots"
	progressVerbose = "verbose"
	progressJSON    = "json"
	progressNone    = "none"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run suites and print the results as JSON",
		ArgsUsage: "[files or directories...]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "reporter-option",
				Aliases: []string{"O"},
				Usage:   "reporter options as k=v[,k=v] (stats, space, ...)",
			},
			&cli.BoolFlag{
				Name:  "no-stats",
				Usage: "omit the stats object",
			},
			&cli.IntFlag{
				Name:  "indent",
				Usage: "spaces per indentation level (0-10)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "write the document to a file instead of stdout",
				Sources: cli.EnvVars("SUITEJSON_OUTPUT"),
			},
			&cli.BoolFlag{
				Name:  "fail-fast",
				Usage: "stop on first failure",
			},
			&cli.StringFlag{
				Name:  "grep",
				Usage: "run only tests whose path matches pattern",
			},
			&cli.StringFlag{
				Name:    "progress",
				Usage:   "progress output on stderr: dots, verbose, json or none",
				Sources: cli.EnvVars("SUITEJSON_PROGRESS"),
			},
		},
		Action: runSuites,
	}
}

func runSuites(ctx context.Context, cmd *cli.Command) error {
	logger, err := newLogger(cmd.Bool("debug"))
	if err != nil {
		return err
	}

	defer func() { _ = logger.Sync() }()

	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	cfg, cfgDir, err := loadConfigWithDir(wd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Debug("config", zap.String("dir", cfgDir))

	args := cmd.Args().Slice()
	if len(args) == 0 {
		for _, spec := range cfg.Spec {
			args = append(args, resolvePath(cfgDir, spec))
		}
	}

	if len(args) == 0 {
		args = []string{"."}
	}

	files, err := collectSuiteFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return ErrNoSuiteFiles
	}

	root, err := runner.Load(files...)
	if err != nil {
		return err
	}

	opts, err := reporterOptions(cmd, cfg)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout

	output := firstNonEmpty(cmd.String("output"), resolvePath(cfgDir, cfg.Output))
	if output != "" {
		f, err := os.Create(filepath.Clean(output))
		if err != nil {
			return fmt.Errorf("opening output: %w", err)
		}

		defer func() { _ = f.Close() }()

		out = f
	}

	reporter := suitejson.NewReporter(opts, out, suitejson.WithLogger(logger))
	handlers := []runner.Handler{runner.NewReporterHandler(reporter)}

	progress := firstNonEmpty(cmd.String("progress"), cfg.Progress, defaultProgress(os.Stderr))
	switch progress {
	case progressDots, progressVerbose, progressJSON:
		f := runner.NewFormatter(progress, os.Stderr)
		handlers = append(handlers, runner.NewFormatHandler(f, os.Stderr))
	case progressNone:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownProgress, progress)
	}

	r := runner.New(
		runner.WithHandler(runner.NewMultiHandler(handlers...)),
		runner.WithFailFast(cmd.Bool("fail-fast") || cfg.FailFast),
		runner.WithFilter(firstNonEmpty(cmd.String("grep"), cfg.Grep)),
		runner.WithLogger(logger),
	)

	run, err := r.Run(ctx, root)
	if err != nil {
		return err
	}

	if !run.Ok() {
		return cli.Exit("", 1)
	}

	return nil
}

// reporterOptions layers the options bag: config file, then -O strings, then
// dedicated flags.
func reporterOptions(cmd *cli.Command, cfg *suitejson.Config) (suitejson.Options, error) {
	bag := make(map[string]any, len(cfg.ReporterOptions))
	for k, v := range cfg.ReporterOptions {
		bag[k] = v
	}

	bag, err := suitejson.MergeOptionStrings(bag, cmd.StringSlice("reporter-option")...)
	if err != nil {
		return suitejson.Options{}, err
	}

	if cmd.Bool("no-stats") {
		bag["stats"] = false
	}

	if cmd.IsSet("indent") {
		bag["space"] = int(cmd.Int("indent"))
	}

	return suitejson.ParseOptions(bag), nil
}

func defaultProgress(f *os.File) string {
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return progressDots
	}

	return progressNone
}

func collectSuiteFiles(args []string) ([]string, error) {
	var (
		mu    sync.Mutex
		files []string
	)

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		err = walkDir(arg, func(path string) {
			mu.Lock()
			files = append(files, path)
			mu.Unlock()
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)

	return files, nil
}

// walkDir walks a directory for suite files, respecting .gitignore.
func walkDir(root string, callback func(path string)) error {
	fileListQueue := make(chan *gocodewalker.File, 100)

	fileWalker := gocodewalker.NewFileWalker(root, fileListQueue)

	var walkErr error
	fileWalker.SetErrorHandler(func(e error) bool {
		walkErr = e
		return true
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for f := range fileListQueue {
			if isSuiteFile(f.Location) {
				callback(f.Location)
			}
		}
	}()

	if err := fileWalker.Start(); err != nil {
		return err
	}

	wg.Wait()
	return walkErr
}

func isSuiteFile(path string) bool {
	for _, suffix := range suiteSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}

	return false
}

func resolvePath(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(dir, path)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
