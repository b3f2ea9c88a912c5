package devserver

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"fresco/internal/logging"
	"fresco/internal/ring"
	"fresco/ui"
)

const recentCompiles = 50

// compileRecord summarizes one compile for the status endpoint.
type compileRecord struct {
	Template string    `json:"template"`
	Success  bool      `json:"success"`
	Duration string    `json:"duration"`
	At       time.Time `json:"at"`
	Error    string    `json:"error,omitempty"`
}

// compiler turns changed source files into templates on a bounded
// worker pool and hands them to deliver.
type compiler struct {
	cfg     CompileConfig
	log     *logging.Logger
	pool    *ants.Pool
	deliver func(ui.Template)

	mu     sync.Mutex
	recent *ring.Ring[compileRecord]
}

func newCompiler(cfg CompileConfig, log *logging.Logger, deliver func(ui.Template)) (*compiler, error) {
	pool, err := ants.NewPool(cfg.Workers, ants.WithPanicHandler(func(reason interface{}) {
		log.Error("compile worker panicked", map[string]string{"reason": fmt.Sprint(reason)})
	}))
	if err != nil {
		return nil, fmt.Errorf("start compile pool: %w", err)
	}
	return &compiler{
		cfg:     cfg,
		log:     log,
		pool:    pool,
		deliver: deliver,
		recent:  ring.New[compileRecord](recentCompiles),
	}, nil
}

// Submit queues a compile of path. name is the template name delivered
// to applications.
func (c *compiler) Submit(name, path string) {
	err := c.pool.Submit(func() {
		c.compile(name, path)
	})
	if err != nil {
		c.log.Warn("compile not scheduled", map[string]string{
			"template": name,
			"error":    err.Error(),
		})
	}
}

func (c *compiler) compile(name, path string) {
	start := time.Now()
	template, output, err := c.build(name, path)
	elapsed := time.Since(start)

	record := compileRecord{
		Template: name,
		Success:  err == nil,
		Duration: elapsed.Round(time.Millisecond).String(),
		At:       start.UTC(),
	}
	if err != nil {
		record.Error = err.Error()
	}
	c.mu.Lock()
	c.recent.Push(record)
	c.mu.Unlock()

	if len(output) > 0 {
		c.log.Debug("compiler output", map[string]string{
			"template": name,
			"output":   string(output),
		})
	}
	if err != nil {
		c.log.Error("compile failed", map[string]string{
			"template": name,
			"error":    err.Error(),
		})
		return
	}
	c.log.Info("compile finished", map[string]string{
		"template": name,
		"duration": record.Duration,
	})
	if c.deliver != nil {
		c.deliver(template)
	}
}

// build produces the template body: through the configured compiler
// command, or straight from the file when no command is set. The
// compiled body is the command's stdout; stderr carries diagnostics.
func (c *compiler) build(name, path string) (ui.Template, []byte, error) {
	if len(c.cfg.Command) == 0 {
		body, err := os.ReadFile(path)
		if err != nil {
			return ui.Template{}, nil, fmt.Errorf("read source: %w", err)
		}
		return ui.NewTemplate(name, body), nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout.Std())
	defer cancel()

	argv := buildCompileArgv(c.cfg.Command, path)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	diag, err := newDiagnosticsCapture(cmd)
	if err != nil {
		return ui.Template{}, nil, err
	}
	if err := cmd.Start(); err != nil {
		diag.abort()
		return ui.Template{}, nil, fmt.Errorf("start compiler: %w", err)
	}
	diag.started()
	runErr := cmd.Wait()
	output := diag.finish()

	if runErr != nil {
		return ui.Template{}, output, fmt.Errorf("run compiler: %w", runErr)
	}
	return ui.NewTemplate(name, stdout.Bytes()), output, nil
}

// Recent returns summaries of the latest compiles, oldest first.
func (c *compiler) Recent() []compileRecord {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recent.Values()
}

func (c *compiler) Close() {
	if c == nil || c.pool == nil {
		return
	}
	c.pool.Release()
}

func buildCompileArgv(command []string, path string) []string {
	argv := make([]string, 0, len(command)+1)
	replaced := false
	for _, arg := range command {
		if strings.Contains(arg, "{path}") {
			arg = strings.ReplaceAll(arg, "{path}", path)
			replaced = true
		}
		argv = append(argv, arg)
	}
	if !replaced {
		argv = append(argv, path)
	}
	return argv
}
