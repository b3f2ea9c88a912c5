package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"fresco/internal/cli"
)

const defaultWatcherURL = "http://127.0.0.1:8737"
const defaultSendTimeout = 2 * time.Second
const envWatcherURL = "FRESCO_WATCH_URL"

const (
	actionReload   = "reload"
	actionShutdown = "shutdown"
	actionStatus   = "status"
)

type Config struct {
	URL         string
	Action      string
	Timeout     time.Duration
	Verbose     bool
	ShowVersion bool
	LogWriter   io.Writer
}

func parseArgs(args []string, errOut io.Writer) (Config, error) {
	fs := flag.NewFlagSet("fresco-send", flag.ContinueOnError)
	fs.SetOutput(errOut)
	urlFlag := fs.String("url", "", "Watcher URL (env: FRESCO_WATCH_URL, default: http://127.0.0.1:8737)")
	timeoutFlag := fs.Duration("timeout", defaultSendTimeout, "Request timeout")
	verboseFlag := fs.Bool("verbose", false, "Verbose output")
	helpVersion := cli.AddHelpVersionFlags(fs, "Show this help message", "Print version and exit")
	fs.Usage = func() {
		printSendHelp(fs.Output())
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if helpVersion.Help {
		fs.Usage()
		return Config{}, flag.ErrHelp
	}
	if helpVersion.Version {
		return Config{ShowVersion: true}, nil
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return Config{}, fmt.Errorf("action is required")
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return Config{}, fmt.Errorf("invalid arguments")
	}

	action := strings.TrimSpace(fs.Arg(0))
	switch action {
	case actionReload, actionShutdown, actionStatus:
	default:
		fs.Usage()
		return Config{}, fmt.Errorf("unknown action %q", action)
	}

	url := strings.TrimSpace(*urlFlag)
	if url == "" {
		url = strings.TrimSpace(os.Getenv(envWatcherURL))
	}
	if url == "" {
		url = defaultWatcherURL
	}

	return Config{
		URL:     url,
		Action:  action,
		Timeout: *timeoutFlag,
		Verbose: *verboseFlag,
	}, nil
}

func printSendHelp(out io.Writer) {
	fmt.Fprintln(out, "Usage: fresco-send [options] <action>")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Send control requests to a running fresco-watch daemon")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Actions:")
	fmt.Fprintln(out, "  reload    Recompile every watched source and broadcast the results")
	fmt.Fprintln(out, "  shutdown  Stop the watcher; connected apps exit cleanly")
	fmt.Fprintln(out, "  status    Print the watcher status as JSON")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Options:")
	cli.WriteOption(out, "--url URL", "Watcher URL (env: FRESCO_WATCH_URL, default: http://127.0.0.1:8737)")
	cli.WriteOption(out, "--timeout DURATION", "Request timeout (default: 2s)")
	cli.WriteOption(out, "--verbose", "Verbose output")
	cli.WriteOption(out, "--help", "Show this help message")
	cli.WriteOption(out, "--version", "Print version and exit")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Examples:")
	fmt.Fprintln(out, "  fresco-send reload")
	fmt.Fprintln(out, "  fresco-send --url http://127.0.0.1:9000 status")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Exit codes:")
	fmt.Fprintln(out, "  0  Success")
	fmt.Fprintln(out, "  1  Usage error")
	fmt.Fprintln(out, "  2  Request rejected")
	fmt.Fprintln(out, "  3  Network or server error")
}
