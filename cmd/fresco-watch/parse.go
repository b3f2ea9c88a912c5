package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"fresco/internal/cli"
	"fresco/internal/devserver"
)

const envConfigPath = "FRESCO_WATCH_CONFIG"

type options struct {
	ConfigPath  string
	Listen      string
	Roots       []string
	Extensions  []string
	Debounce    time.Duration
	LogLevel    string
	ShowVersion bool
}

func parseArgs(args []string, errOut io.Writer) (options, error) {
	fs := flag.NewFlagSet("fresco-watch", flag.ContinueOnError)
	fs.SetOutput(errOut)
	configFlag := fs.String("config", "", "Config file (env: FRESCO_WATCH_CONFIG)")
	listenFlag := fs.String("listen", "", "Listen address (default: 127.0.0.1:8737)")
	var extensions cli.StringList
	fs.Var(&extensions, "ext", "Source extension to watch, repeatable (default: .fsc)")
	debounceFlag := fs.Duration("debounce", 0, "Debounce window for file events (default: 100ms)")
	levelFlag := fs.String("log-level", "", "Log level: debug, info, warning, error (default: info)")
	helpVersion := cli.AddHelpVersionFlags(fs, "Show this help message", "Print version and exit")
	fs.Usage = func() {
		printWatchHelp(fs.Output())
	}

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if helpVersion.Help {
		fs.Usage()
		return options{}, flag.ErrHelp
	}
	if helpVersion.Version {
		return options{ShowVersion: true}, nil
	}

	return options{
		ConfigPath: strings.TrimSpace(*configFlag),
		Listen:     strings.TrimSpace(*listenFlag),
		Roots:      fs.Args(),
		Extensions: extensions,
		Debounce:   *debounceFlag,
		LogLevel:   strings.TrimSpace(*levelFlag),
	}, nil
}

// resolveConfig layers flag overrides on top of the config file, or on
// the defaults when no file is given. Roots fall back to the current
// directory.
func resolveConfig(opts options) (devserver.Config, error) {
	cfg := devserver.DefaultConfig()

	path := opts.ConfigPath
	if path == "" {
		path = strings.TrimSpace(os.Getenv(envConfigPath))
	}
	if path != "" {
		loaded, err := devserver.LoadConfig(path)
		if err != nil {
			return devserver.Config{}, err
		}
		cfg = loaded
	}

	if opts.Listen != "" {
		cfg.Listen = opts.Listen
	}
	if len(opts.Roots) > 0 {
		cfg.Roots = opts.Roots
	}
	if len(opts.Extensions) > 0 {
		cfg.Extensions = opts.Extensions
	}
	if opts.Debounce > 0 {
		cfg.Debounce = devserver.Duration(opts.Debounce)
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if len(cfg.Roots) == 0 {
		cfg.Roots = []string{"."}
	}
	return cfg, nil
}

func printWatchHelp(out io.Writer) {
	fmt.Fprintln(out, "Usage: fresco-watch [options] [root ...]")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Watch template sources and push hot reload updates to fresco apps")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Options:")
	cli.WriteOption(out, "--config PATH", "Config file (env: FRESCO_WATCH_CONFIG)")
	cli.WriteOption(out, "--listen ADDR", "Listen address (default: 127.0.0.1:8737)")
	cli.WriteOption(out, "--ext EXT", "Source extension to watch, repeatable (default: .fsc)")
	cli.WriteOption(out, "--debounce DURATION", "Debounce window for file events (default: 100ms)")
	cli.WriteOption(out, "--log-level LEVEL", "Log level: debug, info, warning, error (default: info)")
	cli.WriteOption(out, "--help", "Show this help message")
	cli.WriteOption(out, "--version", "Print version and exit")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Roots default to the current directory when none are given.")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Examples:")
	fmt.Fprintln(out, "  fresco-watch ./src")
	fmt.Fprintln(out, "  fresco-watch --config watch.yaml")
	fmt.Fprintln(out, "  fresco-watch --ext .fsc --ext .tmpl --debounce 250ms ./src ./shared")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Exit codes:")
	fmt.Fprintln(out, "  0  Success")
	fmt.Fprintln(out, "  1  Usage error")
	fmt.Fprintln(out, "  2  Config error")
	fmt.Fprintln(out, "  3  Runtime failure")
}
