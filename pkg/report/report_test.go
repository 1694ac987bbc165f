package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/olamyy/wmt/pkg/check"
	"github.com/olamyy/wmt/pkg/criteria"
	"github.com/olamyy/wmt/pkg/errors"
	"github.com/olamyy/wmt/pkg/source"
)

func sampleRun() *check.RunResult {
	started := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	specs := []criteria.Spec{{ID: "license", Number: 13}}
	packages := []check.PackageResult{{
		Identity: source.Identity{Ecosystem: source.Cargo, Name: "serde"},
		Verdicts: []check.CriterionVerdict{{
			ID:      "license",
			Number:  13,
			Title:   "Does it have a permissive license?",
			Verdict: criteria.Passed("MIT OR Apache-2.0"),
		}},
	}}
	return &check.RunResult{
		ID:         "run-1",
		StartedAt:  started,
		FinishedAt: started.Add(time.Second),
		Mode:       check.SingleCriterion("license"),
		Packages:   packages,
		Summary:    check.Aggregate(specs, packages),
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"table", FormatTable},
		{"JSON", FormatJSON},
		{" yaml ", FormatYAML},
		{"yml", FormatYAML},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %s, %v", tt.in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("ParseFormat(xml) err = %v", err)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleRun()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	out := buf.String()
	for _, want := range []string{`"status": "pass"`, `"outcome": "pass"`, `"criterion": "license"`, `"ecosystem": "cargo"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s:\n%s", want, out)
		}
	}

	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.Packages[0].Verdicts[0].Status != criteria.Pass || got.Summary.Outcome != check.OutcomePass {
		t.Errorf("decoded = %+v", got)
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleRun(), FormatYAML); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var doc struct {
		ID       string `yaml:"id"`
		Packages []struct {
			Verdicts []map[string]any `yaml:"verdicts"`
		} `yaml:"packages"`
		Summary struct {
			Outcome string `yaml:"outcome"`
		} `yaml:"summary"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, buf.String())
	}
	if doc.ID != "run-1" || doc.Summary.Outcome != "pass" {
		t.Errorf("doc = %+v", doc)
	}
	v := doc.Packages[0].Verdicts[0]
	if v["status"] != "pass" || v["id"] != "license" {
		t.Errorf("verdict = %v", v)
	}
}

func TestWrite_Table(t *testing.T) {
	if err := Write(&bytes.Buffer{}, sampleRun(), FormatTable); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("err = %v", err)
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "report.yml")
	if err := Export(sampleRun(), path); err != nil {
		t.Fatalf("Export: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "outcome: pass") {
		t.Errorf("report.yml = %s", data)
	}

	if err := Export(sampleRun(), filepath.Join(dir, "report.txt")); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("report.txt err = %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Save(ctx, sampleRun()); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "run-1")
	if err != nil || got.ID != "run-1" {
		t.Errorf("Get = %v, %v", got, err)
	}
	if _, err := s.Get(ctx, "nope"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("missing run err = %v", err)
	}
}
