package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/olamyy/wmt/pkg/check"
	"github.com/olamyy/wmt/pkg/criteria"
	"github.com/olamyy/wmt/pkg/source"
)

var fetched = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

// fakeRegistry answers registry lookups from memory and serves no
// repository metadata.
type fakeRegistry map[string]time.Time

func (f fakeRegistry) FetchRegistry(_ context.Context, id source.Identity) (*source.RegistryBundle, error) {
	released, ok := f[id.Key()]
	if !ok {
		return nil, &source.FetchError{Kind: source.NotFound, Source: source.KindRegistry}
	}
	return &source.RegistryBundle{
		Meta:            source.Meta{Kind: source.KindRegistry, FetchedAt: fetched, Complete: true},
		LatestReleaseAt: &released,
	}, nil
}

func (fakeRegistry) FetchRepository(context.Context, source.RepoRef) (*source.RepositoryBundle, error) {
	return nil, &source.FetchError{Kind: source.NotFound, Source: source.KindRepository}
}

func (fakeRegistry) Serves(k source.Kind) bool { return k == source.KindRegistry }

// run executes the root command with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(cfgPath, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GITHUB_TOKEN", "")

	var out, logs bytes.Buffer
	c := New(&logs, LogInfo)
	c.SetOutput(&out)
	c.adapter = fakeRegistry{
		"cargo:serde":  fetched.AddDate(0, -1, 0),
		"cargo:tokio":  fetched.AddDate(0, -2, 0),
		"npm:left-pad": fetched.AddDate(-6, 0, 0),
	}

	root := c.RootCommand()
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	root.SetErr(&logs)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCheckCommand_JSON(t *testing.T) {
	out, err := run(t, "check", "-q", "recent-release", "--json", "serde", "npm:left-pad")
	if code := ExitCode(err); code != ExitFail {
		t.Fatalf("exit code = %d (%v), want %d", code, err, ExitFail)
	}

	var res check.RunResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(res.Packages) != 2 {
		t.Fatalf("packages = %d", len(res.Packages))
	}
	if res.Packages[0].Verdicts[0].Status != criteria.Pass || res.Packages[1].Verdicts[0].Status != criteria.Fail {
		t.Errorf("verdicts = %+v", res.Packages)
	}
}

func TestCheckCommand_Pass(t *testing.T) {
	out, err := run(t, "check", "--question", "12", "serde", "tokio")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	for _, want := range []string{"serde", "tokio", "pass"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestCheckCommand_StrictUnknown(t *testing.T) {
	// unpublished packages are Unknown (not found), not Fail
	_, err := run(t, "check", "-q", "recent-release", "ghost")
	if code := ExitCode(err); code != ExitPass {
		t.Errorf("exit code = %d (%v), want %d", code, err, ExitPass)
	}

	_, err = run(t, "check", "-q", "recent-release", "--strict-unknown", "ghost")
	if code := ExitCode(err); code != ExitUnknown {
		t.Errorf("exit code = %d (%v), want %d", code, err, ExitUnknown)
	}
}

func TestCheckCommand_Manifest(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "Cargo.toml")
	content := "[package]\nname = \"app\"\n\n[dependencies]\nserde = \"1\"\ntokio = { version = \"1\" }\n"
	if err := os.WriteFile(manifest, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	report := filepath.Join(dir, "report.yaml")

	_, err := run(t, "check", "-q", "recent-release", "--format", "yaml", "-o", report, manifest)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	data, err := os.ReadFile(report)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "name: tokio") {
		t.Errorf("report.yaml = %s", data)
	}
}

func TestCheckCommand_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no args", []string{"check"}},
		{"bad flag", []string{"check", "--nope", "serde"}},
		{"bad format", []string{"check", "--format", "xml", "serde"}},
		{"bad question", []string{"check", "-q", "stars", "serde"}},
		{"bad ecosystem", []string{"check", "maven:junit"}},
		{"missing manifest", []string{"check", "/nonexistent/package.json"}},
		{"unserved source", []string{"check", "serde"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if code := ExitCode(err); code != ExitUsage {
				t.Errorf("exit code = %d (%v), want %d", code, err, ExitUsage)
			}
		})
	}
}

func TestQuestionsCommand(t *testing.T) {
	out, err := run(t, "questions", "--list")
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(out, "\n"); lines != criteria.Default().Len() {
		t.Errorf("listed %d questions:\n%s", lines, out)
	}

	out, err = run(t, "questions", "13", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var q question
	if err := json.Unmarshal([]byte(out), &q); err != nil {
		t.Fatalf("not JSON: %v\n%s", err, out)
	}
	if q.ID != "license" || q.Number != 13 {
		t.Errorf("question = %+v", q)
	}

	if _, err := run(t, "questions", "99"); ExitCode(err) != ExitUsage {
		t.Errorf("unknown question err = %v", err)
	}
}

func TestCachePathCommand(t *testing.T) {
	cacheHome := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cacheHome)

	out, err := run(t, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out); got != filepath.Join(cacheHome, appName) {
		t.Errorf("cache path = %q", got)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitPass},
		{"fail", outcomeError(check.OutcomeFail, false), ExitFail},
		{"unknown", outcomeError(check.OutcomePartialUnknown, false), ExitPass},
		{"strict unknown", outcomeError(check.OutcomePartialUnknown, true), ExitUnknown},
		{"cancelled", context.Canceled, ExitInterrupted},
		{"other", os.ErrPermission, ExitFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode = %d, want %d", got, tt.want)
			}
		})
	}
	if !Silent(outcomeError(check.OutcomeFail, false)) || Silent(context.Canceled) {
		t.Error("Silent should be true only for outcome errors")
	}
}

func TestRenderTable(t *testing.T) {
	specs := []criteria.Spec{{ID: "license", Number: 13}}
	packages := []check.PackageResult{{
		Identity: source.Identity{Ecosystem: source.NPM, Name: "left-pad", Version: "1.3.0"},
		Verdicts: []check.CriterionVerdict{{
			ID: "license", Number: 13, Title: "Does it have a permissive license?",
			Verdict: criteria.Failed("WTFPL is not on the permissive allow-list"),
		}},
	}}
	res := &check.RunResult{Packages: packages, Summary: check.Aggregate(specs, packages)}

	var buf bytes.Buffer
	renderTable(&buf, res, false)
	out := buf.String()
	for _, want := range []string{"left-pad", "npm", "permissive license", "WTFPL", "fail"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}
