package devserver

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"fresco/internal/logging"
	"fresco/ui"
)

func testCompileConfig() CompileConfig {
	return CompileConfig{Timeout: Duration(5 * time.Second), Workers: 2}
}

func newTestCompiler(t *testing.T, cfg CompileConfig, deliver func(ui.Template)) (*compiler, *logging.Logger) {
	t.Helper()
	log := logging.NewWithOutput(logging.LevelDebug, io.Discard)
	c, err := newCompiler(cfg, log, deliver)
	if err != nil {
		t.Fatalf("new compiler: %v", err)
	}
	t.Cleanup(c.Close)
	return c, log
}

func TestCompilerPassthroughDeliversFileBody(t *testing.T) {
	path := filepath.Join(t.TempDir(), "home.fsc")
	if err := os.WriteFile(path, []byte("<h1>home</h1>"), 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	delivered := make(chan ui.Template, 1)
	c, _ := newTestCompiler(t, testCompileConfig(), func(template ui.Template) {
		delivered <- template
	})

	c.Submit("views/home.fsc", path)

	template := waitForTemplate(t, delivered)
	if template.Name != "views/home.fsc" {
		t.Fatalf("unexpected name %q", template.Name)
	}
	if string(template.Body) != "<h1>home</h1>" {
		t.Fatalf("unexpected body %q", template.Body)
	}

	record := waitForRecord(t, c, "views/home.fsc")
	if !record.Success {
		t.Fatalf("expected success record, got %+v", record)
	}
}

func TestCompilerRecordsReadFailure(t *testing.T) {
	delivered := make(chan ui.Template, 1)
	c, _ := newTestCompiler(t, testCompileConfig(), func(template ui.Template) {
		delivered <- template
	})

	c.Submit("gone.fsc", filepath.Join(t.TempDir(), "gone.fsc"))

	record := waitForRecord(t, c, "gone.fsc")
	if record.Success {
		t.Fatal("expected failed record")
	}
	if record.Error == "" {
		t.Fatal("expected error detail in record")
	}
	select {
	case template := <-delivered:
		t.Fatalf("unexpected delivery of %q", template.Name)
	default:
	}
}

func TestBuildCompileArgv(t *testing.T) {
	got := buildCompileArgv([]string{"fscc", "--emit", "{path}"}, "/src/home.fsc")
	want := []string{"fscc", "--emit", "/src/home.fsc"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("argv mismatch (-want +got):\n%s", diff)
	}

	got = buildCompileArgv([]string{"fscc"}, "/src/home.fsc")
	want = []string{"fscc", "/src/home.fsc"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("argv mismatch (-want +got):\n%s", diff)
	}
}

func waitForTemplate(t *testing.T, ch <-chan ui.Template) ui.Template {
	t.Helper()
	select {
	case template := <-ch:
		return template
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for template")
		return ui.Template{}
	}
}

func waitForRecord(t *testing.T, c *compiler, name string) compileRecord {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		for _, record := range c.Recent() {
			if record.Template == name {
				return record
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for record %q", name)
	return compileRecord{}
}
