package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/stepcheck/config"
	"github.com/deepnoodle-ai/stepcheck/runner"
	"github.com/deepnoodle-ai/stepcheck/sfn"
	"github.com/deepnoodle-ai/stepcheck/slogger"
)

var (
	configPathFlag  string
	outputPathFlag  string
	concurrencyFlag int
	watchFlag       bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario suite against the emulator",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := getLogger()
		cfg, err := loadSuite()
		if err != nil {
			return err
		}

		if watchFlag {
			return watchAndRun(cmd.Context(), cfg, logger)
		}

		report, err := runSuite(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		if !report.AllPassed() {
			return fmt.Errorf("%d of %d scenario(s) did not pass",
				report.Summary.Total-report.Summary.Passed, report.Summary.Total)
		}
		return nil
	},
}

// loadSuite reads the configured suite and applies flag overrides. Flags
// always win over file values.
func loadSuite() (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configPathFlag == "" {
		// No suite on disk: fall back to the built-in sample scenarios.
		if stateMachineARNFlag == "" {
			return nil, fmt.Errorf("pass --config with a suite, or --state-machine to run the sample scenarios")
		}
		cfg = config.Default(stateMachineARNFlag)
	} else {
		info, statErr := os.Stat(configPathFlag)
		if statErr != nil {
			return nil, statErr
		}
		if info.IsDir() {
			cfg, err = config.LoadDirectory(configPathFlag)
		} else {
			cfg, err = config.ParseFile(configPathFlag)
		}
		if err != nil {
			return nil, err
		}
	}

	if endpointFlag != "" {
		cfg.Endpoint = endpointFlag
	}
	if regionFlag != "" {
		cfg.Region = regionFlag
	}
	if stateMachineARNFlag != "" {
		cfg.StateMachineARN = stateMachineARNFlag
	}
	if concurrencyFlag > 0 {
		cfg.MaxConcurrency = concurrencyFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runSuite(ctx context.Context, cfg *config.Config, logger slogger.Logger) (*runner.Report, error) {
	client, err := sfn.New(ctx, sfn.Options{
		Endpoint: cfg.Endpoint,
		Region:   cfg.Region,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	r, err := runner.New(runner.Options{
		Client:          client,
		StateMachineARN: cfg.StateMachineARN,
		MaxConcurrency:  cfg.MaxConcurrency,
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}

	report, err := r.Run(ctx, cfg.Scenarios)
	if err != nil {
		return nil, err
	}

	if err := report.WriteText(os.Stdout); err != nil {
		return nil, err
	}
	if outputPathFlag != "" {
		f, err := os.Create(outputPathFlag)
		if err != nil {
			return nil, fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		if err := report.WriteJSON(f); err != nil {
			return nil, fmt.Errorf("failed to write report: %w", err)
		}
		logger.Info("report written", "path", outputPathFlag)
	}
	return report, nil
}

// watchAndRun reruns the suite whenever a config file changes. Rapid
// editor save bursts are debounced.
func watchAndRun(ctx context.Context, cfg *config.Config, logger slogger.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watchDir := configPathFlag
	if info, err := os.Stat(configPathFlag); err == nil && !info.IsDir() {
		watchDir = filepath.Dir(configPathFlag)
	}
	if err := watcher.Add(watchDir); err != nil {
		return err
	}

	if _, err := runSuite(ctx, cfg, logger); err != nil {
		logger.Error("suite run failed", "error", err.Error())
	}

	var lastRun time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isSuiteFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if time.Since(lastRun) < 500*time.Millisecond {
				continue
			}
			lastRun = time.Now()
			logger.Info("suite changed, rerunning", "file", event.Name)

			reloaded, err := loadSuite()
			if err != nil {
				logger.Error("failed to reload suite", "error", err.Error())
				continue
			}
			if _, err := runSuite(ctx, reloaded, logger); err != nil {
				logger.Error("suite run failed", "error", err.Error())
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error", "error", err.Error())
		}
	}
}

func isSuiteFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml", ".json":
		return true
	}
	return false
}

func init() {
	runCmd.Flags().StringVarP(&configPathFlag, "config", "c", "",
		"Suite file or directory to run")
	runCmd.Flags().StringVarP(&outputPathFlag, "output", "o", "",
		"Write the JSON report to this path")
	runCmd.Flags().IntVar(&concurrencyFlag, "concurrency", 0,
		"Maximum scenarios running at once")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false,
		"Rerun the suite when config files change")
	rootCmd.AddCommand(runCmd)
}
