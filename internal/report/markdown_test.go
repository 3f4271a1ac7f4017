package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var testRows = []Row{
	{Title: "Untriaged", URL: "https://progress.example.com/issues?query_id=1", IssueCount: 3, Limits: "<1", Pass: false},
	{Title: "Backlog", URL: "https://progress.example.com/issues?query_id=2", IssueCount: 40, Limits: "<101, >19", Pass: true},
	{Title: "Broken", URL: "https://progress.example.com/issues?query_id=3", Limits: "<5", Error: "timeout"},
}

func TestThemeByName(t *testing.T) {
	tests := []struct {
		name   string
		want   Theme
		wantOK bool
	}{
		{"", Modern, true},
		{"modern", Modern, true},
		{"legacy", Legacy, true},
		{"fancy", Modern, false},
	}
	for _, tt := range tests {
		got, ok := ThemeByName(tt.name)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ThemeByName(%q) = %v, %v; want %v, %v", tt.name, got.Name, ok, tt.want.Name, tt.wantOK)
		}
	}
}

func TestRenderModern(t *testing.T) {
	d := Dashboard{Team: "QA", URL: "https://qa.example.com", Theme: Modern}
	var buf bytes.Buffer
	if err := d.Render(&buf, testRows); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "### [QA](https://qa.example.com) Dashboard\n\n") {
		t.Errorf("unexpected heading:\n%s", out)
	}
	attention := strings.Index(out, "Attention Required")
	passing := strings.Index(out, "Passing Checks")
	if attention < 0 || passing < 0 || attention > passing {
		t.Fatalf("expected failing table before passing table:\n%s", out)
	}
	failingPart := out[attention:passing]
	if !strings.Contains(failingPart, ">Untriaged</a>") || !strings.Contains(failingPart, ">Broken</a>") {
		t.Errorf("failing table missing rows:\n%s", failingPart)
	}
	if strings.Contains(failingPart, "Backlog<") {
		t.Errorf("passing query in failing table:\n%s", failingPart)
	}
	if !strings.Contains(out, "<td>n/a</td>") {
		t.Errorf("errored query should show n/a:\n%s", out)
	}
	if !strings.Contains(out, "query_id=2'>Backlog</a></td><td>40</td><td>&lt;101, &gt;19</td><td>"+Modern.PassIcon) {
		t.Errorf("passing row not rendered as expected:\n%s", out)
	}
}

func TestRenderModernAllPassing(t *testing.T) {
	d := Dashboard{Team: "QA", URL: "u", Theme: Modern}
	var buf bytes.Buffer
	if err := d.Render(&buf, testRows[1:2]); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(buf.String(), "Attention Required") {
		t.Errorf("no failing table expected:\n%s", buf.String())
	}
}

func TestRenderLegacy(t *testing.T) {
	now := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	d := Dashboard{Team: "QA", URL: "https://qa.example.com", Theme: Legacy, Now: now}
	var buf bytes.Buffer
	if err := d.Render(&buf, testRows); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Backlog Status\n",
		"This is the dashboard for [QA](https://qa.example.com).\n",
		"**Latest Run:** 2025-03-04 05:06:07 UTC\n",
		"[Untriaged](https://progress.example.com/issues?query_id=1)|3|<1|&#x1F534;\n",
		"[Backlog](https://progress.example.com/issues?query_id=2)|40|<101, >19|&#x1F49A;\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("legacy output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "--- | --- | --- | ---") != 1 {
		t.Errorf("legacy theme should write a single table:\n%s", out)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.md")
	d := Dashboard{Team: "QA", URL: "u", Theme: Modern}
	if err := d.WriteFile(path, testRows); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Dashboard") {
		t.Errorf("unexpected file content:\n%s", data)
	}
}
