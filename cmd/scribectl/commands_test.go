package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MikeSquared-Agency/scribe/internal/notion"
	"github.com/MikeSquared-Agency/scribe/internal/response"
)

type memClipboard struct{ text string }

func (m *memClipboard) WriteAll(text string) error {
	m.text = text
	return nil
}

type memExporter struct {
	noCreds bool
	got     []response.Record
}

func (m *memExporter) HasCredentials() bool { return !m.noCreds }

func (m *memExporter) Export(_ context.Context, rec response.Record) notion.Result {
	m.got = append(m.got, rec)
	return notion.Result{Success: true, PageURL: "https://www.notion.so/saved"}
}

const savedPage = `<main>
	<div data-message-author-role="0">Plan a weekend in Kyoto</div>
	<div data-message-author-role="1">{"title":"Kyoto weekend","summary":"Temples","content":"Day 1","todos":"Book hotel","date":"2026-04-01"}</div>
</main>`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, opts *options, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmdWith(opts)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestThreadCommand_JSON(t *testing.T) {
	out, err := run(t, &options{}, "", "thread", "--json", writeFile(t, savedPage))
	if err != nil {
		t.Fatalf("thread: %v", err)
	}
	var msgs []map[string]any
	if err := json.Unmarshal([]byte(out), &msgs); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(msgs) != 2 || msgs[0]["role"] != "user" || msgs[1]["role"] != "model" {
		t.Errorf("unexpected transcript %v", msgs)
	}
}

func TestThreadCommand_Text(t *testing.T) {
	out, err := run(t, &options{}, "", "thread", writeFile(t, savedPage))
	if err != nil {
		t.Fatalf("thread: %v", err)
	}
	if !strings.Contains(out, "【ユーザー】") || !strings.Contains(out, "Plan a weekend in Kyoto") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestThreadCommand_MissingFile(t *testing.T) {
	if _, err := run(t, &options{}, "", "thread", filepath.Join(t.TempDir(), "missing.html")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestPromptCommand_CopiesToClipboard(t *testing.T) {
	clip := &memClipboard{}
	out, err := run(t, &options{clipboard: clip, exporter: &memExporter{}}, "", "prompt", writeFile(t, savedPage))
	if err != nil {
		t.Fatalf("prompt: %v", err)
	}
	if clip.text == "" || !strings.Contains(out, clip.text) {
		t.Error("expected printed prompt to match the clipboard")
	}
	if !strings.Contains(clip.text, "Plan a weekend in Kyoto") {
		t.Error("expected transcript in prompt")
	}
}

func TestParseCommand_Stdin(t *testing.T) {
	out, err := run(t, &options{}, "```json\n{\"title\":\"From stdin\"}\n```", "parse", "--json", "-")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var body struct {
		Found  bool            `json:"found"`
		Record response.Record `json:"record"`
	}
	if err := json.Unmarshal([]byte(out), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Found || body.Record.Title != "From stdin" {
		t.Errorf("unexpected result %+v", body)
	}
}

func TestParseCommand_NoJSON(t *testing.T) {
	out, err := run(t, &options{}, "just prose", "parse", "--json", "-")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.Contains(out, `"found": false`) {
		t.Errorf("expected not found, got %q", out)
	}
}

func TestSaveCommand(t *testing.T) {
	exp := &memExporter{}
	out, err := run(t, &options{exporter: exp, clipboard: &memClipboard{}}, "", "save", "--response", "0", writeFile(t, savedPage))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(exp.got) != 1 || exp.got[0].Title != "Kyoto weekend" {
		t.Fatalf("unexpected export %+v", exp.got)
	}
	if !strings.Contains(out, "https://www.notion.so/saved") {
		t.Errorf("expected page url in output, got %q", out)
	}
}

func TestSaveCommand_DryRun(t *testing.T) {
	exp := &memExporter{}
	out, err := run(t, &options{exporter: exp, clipboard: &memClipboard{}}, "", "save", "--dry-run", writeFile(t, savedPage))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(exp.got) != 0 {
		t.Error("dry run must not export")
	}
	if !strings.Contains(out, "Kyoto weekend") {
		t.Errorf("expected record in output, got %q", out)
	}
}

func TestSaveCommand_DryRunWithoutCredentials(t *testing.T) {
	exp := &memExporter{noCreds: true}
	out, err := run(t, &options{exporter: exp, clipboard: &memClipboard{}}, "", "save", "--dry-run", writeFile(t, savedPage))
	if err != nil {
		t.Fatalf("dry run should not need credentials: %v", err)
	}
	if !strings.Contains(out, "Kyoto weekend") {
		t.Errorf("expected record in output, got %q", out)
	}
}

func TestSaveCommand_RequiresCredentials(t *testing.T) {
	exp := &memExporter{noCreds: true}
	if _, err := run(t, &options{exporter: exp, clipboard: &memClipboard{}}, "", "save", writeFile(t, savedPage)); err == nil {
		t.Error("expected credential error without --dry-run")
	}
	if len(exp.got) != 0 {
		t.Error("nothing should be exported")
	}
}

func TestSaveCommand_MissingResponse(t *testing.T) {
	_, err := run(t, &options{exporter: &memExporter{}, clipboard: &memClipboard{}}, "", "save", "-r", "4", writeFile(t, savedPage))
	if err == nil {
		t.Error("expected error for missing response")
	}
}
