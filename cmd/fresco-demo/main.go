// Command fresco-demo is a minimal fresco application wired for hot
// reload: it connects to fresco-watch, serves a server-rendered page
// and renders the latest templates on every request.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"fresco/internal/logging"
	"fresco/reload"
	"fresco/serve"
	"fresco/ui"
)

const defaultIndexPage = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>fresco demo</title>
</head>
<body>
  <div id="main"></div>
</body>
</html>
`

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, errOut io.Writer) int {
	fs := flag.NewFlagSet("fresco-demo", flag.ContinueOnError)
	fs.SetOutput(errOut)
	addr := fs.String("addr", "127.0.0.1:8080", "Demo server listen address")
	assets := fs.String("assets", "dist", "Built client assets directory")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	logger := logging.New(logging.LevelInfo)

	// Shared exits the process when no watcher is reachable.
	state := reload.Shared()

	if err := ensureIndex(*assets); err != nil {
		logger.Error("prepare assets", map[string]string{"error": err.Error()})
		return 1
	}

	cfg, err := serve.NewBuilder(renderTemplates(state)).
		AssetsPath(*assets).
		Build()
	if err != nil {
		logger.Error("build serve config", map[string]string{"error": err.Error()})
		return 1
	}

	go logUpdates(context.Background(), logger, state)

	mux := http.NewServeMux()
	mux.HandleFunc("/", servePage(cfg, logger))
	assetPrefix := "/" + cfg.AssetsPath + "/"
	mux.Handle(assetPrefix, http.StripPrefix(assetPrefix, http.FileServer(http.Dir(cfg.AssetsPath))))

	logger.Info("demo app listening", map[string]string{"addr": *addr})
	if err := http.ListenAndServe(*addr, mux); err != nil {
		logger.Error("demo server stopped", map[string]string{"error": err.Error()})
		return 1
	}
	return 0
}

// ensureIndex writes a starter index page when the assets directory
// has none, so the demo runs from an empty checkout.
func ensureIndex(assets string) error {
	path := filepath.Join(assets, "index.html")
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(assets, 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(defaultIndexPage), 0o644)
}

type templateSource interface {
	Templates() []ui.Template
}

// renderTemplates renders the cached templates in name order, reading
// the latest state on every request.
func renderTemplates(source templateSource) serve.RenderFunc {
	return func(ctx context.Context, w io.Writer) error {
		templates := source.Templates()
		sort.Slice(templates, func(i, j int) bool { return templates[i].Name < templates[j].Name })
		if len(templates) == 0 {
			_, err := io.WriteString(w, "<p>No templates yet. Edit a watched source file.</p>")
			return err
		}
		for _, template := range templates {
			if _, err := fmt.Fprintf(w, "<section data-template=%q>\n", template.Name); err != nil {
				return err
			}
			if _, err := w.Write(template.Body); err != nil {
				return err
			}
			if _, err := io.WriteString(w, "\n</section>\n"); err != nil {
				return err
			}
		}
		return nil
	}
}

func servePage(cfg serve.Config, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := io.WriteString(w, cfg.Index.Before); err != nil {
			return
		}
		if err := cfg.Render(r.Context(), w); err != nil {
			logger.Error("render failed", map[string]string{"error": err.Error()})
			return
		}
		_, _ = io.WriteString(w, cfg.Index.After)
	}
}

// logUpdates follows the update stream until the watcher goes away.
func logUpdates(ctx context.Context, logger *logging.Logger, state *reload.State) {
	cursor := state.Subscribe()
	for {
		template, err := cursor.Next(ctx)
		if err != nil {
			logger.Warn("update stream ended", map[string]string{"error": err.Error()})
			return
		}
		logger.Info("template updated", map[string]string{"template": template.Name})
	}
}
