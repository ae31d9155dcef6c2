package regression

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestLoadBattery(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "battery.yaml")
	content := `version: 1
tasks:
  - id: smoke
    type: graph
    ccdl: |
      1 :: AllPlaces :: 100% :: BroadcastEvent(A)
      1 :: AllPlaces :: 100% :: A->X
    want_edges: ["0->1:A"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write battery: %v", err)
	}

	b, err := LoadBattery(path)
	if err != nil {
		t.Fatalf("LoadBattery failed: %v", err)
	}
	if b.Version != 1 {
		t.Fatalf("Version = %d, want 1", b.Version)
	}
	if len(b.Tasks) != 1 || b.Tasks[0].ID != "smoke" {
		t.Fatalf("unexpected tasks: %+v", b.Tasks)
	}
	if b.path("x.ccdl") != filepath.Join(dir, "x.ccdl") {
		t.Fatalf("relative paths should resolve against %s, got %s", dir, b.path("x.ccdl"))
	}
}

func TestGoldenBattery(t *testing.T) {
	b, err := LoadBattery(filepath.Join("testdata", "battery.yaml"))
	if err != nil {
		t.Fatalf("LoadBattery failed: %v", err)
	}
	b.KeepGoing = true

	results, err := RunBattery(context.Background(), b)
	if err != nil {
		t.Fatalf("RunBattery failed: %v", err)
	}
	if len(results) != len(b.Tasks) {
		t.Fatalf("results len = %d, want %d", len(results), len(b.Tasks))
	}
	for _, r := range results {
		if !r.Success {
			t.Errorf("task %s failed: %s\noutput:\n%s", r.TaskID, r.Error, r.Output)
		}
	}
	if !Passed(results) {
		t.Fatal("Passed should agree with the per-task results")
	}
}

func TestRunBatteryReportsMismatch(t *testing.T) {
	b := &Battery{
		Version: 1,
		Tasks: []Task{
			{
				ID:        "graph",
				Type:      TypeGraph,
				CCDL:      "1 :: AllPlaces :: 100%/A=1 :: BroadcastEvent(S)\n1 :: AllPlaces :: 100%/A=2 :: S->X\n",
				WantEdges: []string{"0->1:S"},
			},
			{ID: "after", Type: TypeEncode, CCDL: ""},
		},
	}

	results, err := RunBattery(context.Background(), b)
	if err != nil {
		t.Fatalf("RunBattery failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected fail-fast after first task, got %d", len(results))
	}
	if results[0].Success {
		t.Fatal("incompatible restrictions should produce no edge")
	}
	if !strings.Contains(results[0].Error, "graph mismatch") {
		t.Fatalf("unexpected error: %s", results[0].Error)
	}
}

func TestRunBatteryEncodeMismatch(t *testing.T) {
	b := &Battery{Tasks: []Task{{
		ID:          "encode",
		Type:        TypeEncode,
		CCDL:        "5 :: AllPlaces :: 25% :: X\n",
		WantRecords: []map[string]any{{"start_day": 5, "nodes": []any{}, "frac": 0.5, "iv_name": "X"}},
	}}}

	results, err := RunBattery(context.Background(), b)
	if err != nil {
		t.Fatalf("RunBattery failed: %v", err)
	}
	if results[0].Success {
		t.Fatal("expected frac mismatch")
	}

	b.Tasks[0].WantRecords[0]["frac"] = 0.25
	results, _ = RunBattery(context.Background(), b)
	if !results[0].Success {
		t.Fatalf("expected success, got %s", results[0].Error)
	}
}

func TestRunBatteryUnsupportedTask(t *testing.T) {
	b := &Battery{
		Version: 1,
		Tasks: []Task{
			{ID: "bad", Type: "unknown"},
			{ID: "after", Type: TypeEncode},
		},
	}

	results, err := RunBattery(context.Background(), b)
	if err != nil {
		t.Fatalf("RunBattery failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected fail-fast after first task, got %d", len(results))
	}
	if results[0].Success {
		t.Fatalf("expected unsupported task to fail")
	}
	if !strings.Contains(results[0].Error, "unsupported task type") {
		t.Fatalf("unexpected error: %s", results[0].Error)
	}
}

func TestRunBatteryDecodeNeedsCampaign(t *testing.T) {
	results, err := RunBattery(context.Background(), &Battery{Tasks: []Task{{ID: "d", Type: TypeDecode}}})
	if err != nil {
		t.Fatalf("RunBattery failed: %v", err)
	}
	if results[0].Success {
		t.Fatal("decode without a campaign should fail")
	}
}

func TestRunBatteryShell(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell tasks use bash")
	}
	b := &Battery{Tasks: []Task{{ID: "smoke", Type: TypeShell, Command: "echo ok", TimeoutSec: 5}}}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results, err := RunBattery(ctx, b)
	if err != nil {
		t.Fatalf("RunBattery failed: %v", err)
	}
	if !results[0].Success {
		t.Fatalf("expected success, got error: %s", results[0].Error)
	}
	if !strings.Contains(results[0].Output, "ok") {
		t.Fatalf("expected output to contain ok, got %q", results[0].Output)
	}
}

func TestRunBatteryEmpty(t *testing.T) {
	results, err := RunBattery(context.Background(), nil)
	if err != nil || results != nil {
		t.Fatalf("nil battery should be a no-op, got %v, %v", results, err)
	}
}
