package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"fresco/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	return runWithSender(args, out, errOut, performAction)
}

func runWithSender(args []string, out io.Writer, errOut io.Writer, send func(Config, io.Writer) error) int {
	cfg, err := parseArgs(args, errOut)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitCodeSuccess
		}
		fmt.Fprintln(errOut, err.Error())
		return exitCodeUsage
	}
	if cfg.ShowVersion {
		fmt.Fprintln(out, version.Line("fresco-send"))
		return exitCodeSuccess
	}
	cfg.LogWriter = errOut
	applyTimeout(cfg)

	if send == nil {
		return exitCodeSuccess
	}
	if err := send(cfg, out); err != nil {
		return handleSendError(err, errOut)
	}
	return exitCodeSuccess
}
