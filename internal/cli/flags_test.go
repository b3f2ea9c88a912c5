package cli

import (
	"bytes"
	"flag"
	"io"
	"testing"
)

func TestHelpFlag(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	flags := AddHelpVersionFlags(fs, "", "")

	if err := fs.Parse([]string{"-h"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !flags.Help {
		t.Fatalf("expected help flag set")
	}
}

func TestVersionFlag(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	flags := AddHelpVersionFlags(fs, "", "")

	if err := fs.Parse([]string{"--version"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !flags.Version {
		t.Fatalf("expected version flag set")
	}
}

func TestStringListCollectsRepeatedValues(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var exts StringList
	fs.Var(&exts, "ext", "extension")

	if err := fs.Parse([]string{"--ext", ".fsc", "--ext", ".tmpl"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(exts) != 2 || exts[0] != ".fsc" || exts[1] != ".tmpl" {
		t.Fatalf("unexpected values %v", exts)
	}
}

func TestStringListRejectsEmptyValue(t *testing.T) {
	var exts StringList
	if err := exts.Set("  "); err == nil {
		t.Fatal("expected error for blank value")
	}
}

func TestWriteOptionAlignment(t *testing.T) {
	buf := &bytes.Buffer{}
	WriteOption(buf, "--listen ADDR", "Listen address")
	got := buf.String()
	want := "  --listen ADDR        Listen address\n"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
