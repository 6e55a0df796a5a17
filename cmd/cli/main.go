package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nomis52/activitytodo/buildinfo"
	"github.com/nomis52/activitytodo/config"
	"github.com/nomis52/activitytodo/logging"
	"github.com/nomis52/activitytodo/metrics"
	"github.com/nomis52/activitytodo/storage"
	"github.com/nomis52/activitytodo/tasklist"
)

type Args struct {
	ConfigPath  string
	ShowVersion bool
	Validate    bool
	Command     []string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, errInvalidActivity) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run() error {
	args := parseArgs()

	if args.ShowVersion {
		fmt.Printf("todo %s\n", buildinfo.Get())
		return nil
	}

	cfg, err := config.Load(args.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if args.Validate {
		fmt.Printf("Configuration validation successful: %s\n", args.ConfigPath)
		return nil
	}

	if len(args.Command) == 0 {
		flag.Usage()
		return errors.New("no command given")
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Output:    cfg.Logging.Output,
		AddSource: cfg.Logging.AddSource,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.Storage, logger.Logger)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	list := tasklist.New(store,
		tasklist.WithKey(cfg.Storage.Key),
		tasklist.WithLogger(logger.Logger),
	)
	if err := list.Load(ctx); err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}

	a := &app{list: list, out: os.Stdout}

	var registry *metrics.PushRegistry
	if cfg.Monitoring.VictoriaMetricsURL != "" {
		hostname, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("failed to get hostname: %w", err)
		}
		registry = metrics.NewPushRegistry(metrics.PushConfig{
			URL:      cfg.Monitoring.VictoriaMetricsURL,
			Prefix:   cfg.Monitoring.MetricsPrefix,
			Job:      cfg.Monitoring.JobName,
			Instance: hostname,
			Timeout:  cfg.Monitoring.PushTimeout,
		})
		todo, err := metrics.NewTodoMetrics(registry)
		if err != nil {
			return fmt.Errorf("failed to create metrics: %w", err)
		}
		todo.SetTasks(list.Len())
		list.Subscribe(todo.Observe)
		a.recorder = todo
	}

	cmdErr := a.dispatch(ctx, args.Command)

	if registry != nil {
		pushCtx, cancel := context.WithTimeout(context.Background(), cfg.Monitoring.PushTimeout)
		defer cancel()
		if err := registry.Flush(pushCtx); err != nil {
			// The command already ran; a failed push is not fatal.
			logger.Warn("failed to push metrics", "error", err)
		}
	}
	return cmdErr
}

func parseArgs() Args {
	configPath := flag.String("config", "", "Path to config file")
	configPathShort := flag.String("c", "", "Path to config file (shorthand)")
	showVersion := flag.Bool("version", false, "Show version information")
	versionShort := flag.Bool("v", false, "Show version information (shorthand)")
	validate := flag.Bool("validate", false, "Validate configuration and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <command> [command options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nActivity to-do list\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  add       add an activity (see add -h)\n")
		fmt.Fprintf(os.Stderr, "  list      show saved activities\n")
		fmt.Fprintf(os.Stderr, "  remove    remove the activity with the given id\n")
		fmt.Fprintf(os.Stderr, "  types     list the allowed activity types\n")
		fmt.Fprintf(os.Stderr, "\nA running server re-reads storage before its own changes. Its list view\n")
		fmt.Fprintf(os.Stderr, "shows CLI changes after SIGHUP or POST /reload.\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -c config.yaml add -activity \"Run\" -price 5 -type recreational\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -c config.yaml list\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -c config.yaml remove 1718000000000\n", os.Args[0])
	}

	flag.Parse()

	path := *configPath
	if path == "" && *configPathShort != "" {
		path = *configPathShort
	}

	return Args{
		ConfigPath:  path,
		ShowVersion: *showVersion || *versionShort,
		Validate:    *validate,
		Command:     flag.Args(),
	}
}
