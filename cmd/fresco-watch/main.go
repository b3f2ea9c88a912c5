package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"fresco/internal/devserver"
	"fresco/internal/logging"
	"fresco/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	opts, err := parseArgs(args, errOut)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitCodeSuccess
		}
		return exitCodeUsage
	}
	if opts.ShowVersion {
		fmt.Fprintln(out, version.Line("fresco-watch"))
		return exitCodeSuccess
	}

	cfg, err := resolveConfig(opts)
	if err != nil {
		fmt.Fprintln(errOut, err.Error())
		return exitCodeConfig
	}

	level, ok := logging.ParseLevel(cfg.LogLevel)
	if !ok {
		level = logging.LevelInfo
	}
	logger := logging.NewWithOutput(level, errOut)

	server, err := devserver.New(cfg, logger)
	if err != nil {
		fmt.Fprintln(errOut, err.Error())
		return exitCodeConfig
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalCh)
	stopSignalWatch := watchShutdownSignals(logger, cancel, signalCh)
	defer stopSignalWatch()

	if err := server.Run(ctx); err != nil {
		logger.Error("watcher failed", map[string]string{"error": err.Error()})
		return exitCodeRuntime
	}
	return exitCodeSuccess
}
