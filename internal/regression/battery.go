// Package regression runs YAML-defined golden batteries against the decoder,
// encoder and graph builder. A battery pins the CCDL produced for known
// campaigns so that grammar changes show up as diffs.
package regression

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"emodccdl/internal/config"
	"emodccdl/internal/decode"
	"emodccdl/internal/depgraph"
	"emodccdl/internal/encode"
	"emodccdl/internal/intervention"
	"emodccdl/internal/logging"
)

// Task types.
const (
	TypeDecode = "decode"
	TypeEncode = "encode"
	TypeGraph  = "graph"
	TypeShell  = "shell"
)

// Battery is a collection of regression tasks.
type Battery struct {
	Version int    `yaml:"version"`
	Tasks   []Task `yaml:"tasks"`
	// KeepGoing runs every task instead of stopping at the first failure.
	KeepGoing bool `yaml:"keep_going,omitempty"`

	// dir resolves relative paths in tasks.
	dir string
}

// Task is a single regression task. Which fields apply depends on Type.
type Task struct {
	ID   string `yaml:"id"`
	Type string `yaml:"type"`

	// decode: campaign file, optional simulation config for aliases.
	Campaign  string `yaml:"campaign,omitempty"`
	SimConfig string `yaml:"sim_config,omitempty"`

	// encode, graph: CCDL text inline or from a file.
	CCDL     string `yaml:"ccdl,omitempty"`
	CCDLFile string `yaml:"ccdl_file,omitempty"`

	// graph: restricts edges to these signals.
	Whitelist []string `yaml:"whitelist,omitempty"`

	// Expectations. Want is CCDL text for decode; WantRecords the sparse
	// parameter maps for encode; WantEdges "from->to:signal" strings for graph.
	Want        string           `yaml:"want,omitempty"`
	WantRecords []map[string]any `yaml:"want_records,omitempty"`
	WantEdges   []string         `yaml:"want_edges,omitempty"`

	// shell
	Command    string `yaml:"command,omitempty"`
	TimeoutSec int    `yaml:"timeout_sec,omitempty"`
}

// Result captures execution outcome for a task.
type Result struct {
	TaskID     string
	Success    bool
	Output     string
	Error      string
	DurationMs int64
}

// LoadBattery reads a YAML battery file from disk. Relative paths in its
// tasks resolve against the battery's directory.
func LoadBattery(path string) (*Battery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var b Battery
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse battery YAML: %w", err)
	}
	b.dir = filepath.Dir(path)
	return &b, nil
}

// RunBattery executes all tasks in order. Unless KeepGoing is set it stops
// after the first failure.
func RunBattery(ctx context.Context, b *Battery) ([]Result, error) {
	if b == nil || len(b.Tasks) == 0 {
		return nil, nil
	}
	timer := logging.StartTimer(logging.CategoryBattery, "RunBattery")
	defer timer.Stop()
	log := logging.Get(logging.CategoryBattery)

	results := make([]Result, 0, len(b.Tasks))
	for _, task := range b.Tasks {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		start := time.Now()
		res := Result{TaskID: task.ID}

		out, err := b.run(ctx, task)
		res.Output = out
		if err != nil {
			res.Error = err.Error()
			log.Warn("task %s failed: %v", task.ID, err)
		} else {
			res.Success = true
			log.Debug("task %s passed", task.ID)
		}

		res.DurationMs = time.Since(start).Milliseconds()
		results = append(results, res)
		if !res.Success && !b.KeepGoing {
			break
		}
	}
	return results, nil
}

// Passed reports whether every result succeeded.
func Passed(results []Result) bool {
	for _, r := range results {
		if !r.Success {
			return false
		}
	}
	return true
}

func (b *Battery) run(ctx context.Context, task Task) (string, error) {
	switch strings.ToLower(strings.TrimSpace(task.Type)) {
	case TypeDecode:
		return b.runDecode(task)
	case TypeEncode:
		return b.runEncode(task)
	case TypeGraph:
		return b.runGraph(ctx, task)
	case TypeShell, "":
		timeout := time.Duration(task.TimeoutSec) * time.Second
		if timeout <= 0 {
			timeout = 5 * time.Minute
		}
		tctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return runShell(tctx, task.Command, b.dir)
	default:
		return "", fmt.Errorf("unsupported task type: %s", task.Type)
	}
}

func (b *Battery) path(p string) string {
	if p == "" || filepath.IsAbs(p) || b.dir == "" {
		return p
	}
	return filepath.Join(b.dir, p)
}

func (b *Battery) runDecode(task Task) (string, error) {
	if task.Campaign == "" {
		return "", fmt.Errorf("decode task needs a campaign")
	}
	camp, err := decode.LoadFile(b.path(task.Campaign))
	if err != nil {
		return "", err
	}
	var aliases map[string]string
	if task.SimConfig != "" {
		if aliases, err = config.LoadEventMap(b.path(task.SimConfig)); err != nil {
			return "", err
		}
	}

	lines, _ := decode.New(intervention.New(aliases)).Lines(camp)
	if lines == nil {
		lines = []string{}
	}
	out := strings.Join(lines, "\n")
	if diff := cmp.Diff(splitLines(task.Want), lines); diff != "" {
		return out, fmt.Errorf("decode mismatch (-want +got):\n%s", diff)
	}
	return out, nil
}

func (b *Battery) runEncode(task Task) (string, error) {
	lines, err := b.lines(task)
	if err != nil {
		return "", err
	}
	got, err := normalize(encode.Encode(lines).Maps())
	if err != nil {
		return "", err
	}
	want, err := normalize(task.WantRecords)
	if err != nil {
		return "", err
	}
	out, _ := json.Marshal(got)
	if diff := cmp.Diff(want, got); diff != "" {
		return string(out), fmt.Errorf("encode mismatch (-want +got):\n%s", diff)
	}
	return string(out), nil
}

func (b *Battery) runGraph(ctx context.Context, task Task) (string, error) {
	lines, err := b.lines(task)
	if err != nil {
		return "", err
	}
	g, err := depgraph.Build(ctx, lines, depgraph.Options{Whitelist: task.Whitelist})
	if err != nil {
		return "", err
	}
	got := make([]string, len(g.Edges))
	for i, e := range g.Edges {
		got[i] = FormatEdge(e)
	}
	want := task.WantEdges
	if want == nil {
		want = []string{}
	}
	out := strings.Join(got, "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		return out, fmt.Errorf("graph mismatch (-want +got):\n%s", diff)
	}
	return out, nil
}

// FormatEdge renders an edge as "from->to:signal".
func FormatEdge(e depgraph.Edge) string {
	return fmt.Sprintf("%d->%d:%s", e.From, e.To, e.Signal)
}

func (b *Battery) lines(task Task) ([]string, error) {
	if task.CCDLFile == "" {
		return splitLines(task.CCDL), nil
	}
	f, err := os.Open(b.path(task.CCDLFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open CCDL: %w", err)
	}
	defer f.Close()
	return encode.ReadLines(f)
}

// splitLines splits block text into lines, dropping the trailing newline YAML
// block scalars carry.
func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "\n")
}

// normalize round-trips v through JSON so YAML ints and Go float64s compare equal.
func normalize(v []map[string]any) ([]map[string]any, error) {
	if len(v) == 0 {
		return []map[string]any{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize records: %w", err)
	}
	out := []map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to normalize records: %w", err)
	}
	return out, nil
}

func runShell(ctx context.Context, command string, workdir string) (string, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return "", fmt.Errorf("empty command")
	}

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "powershell", "-NoProfile", "-Command", command)
	} else {
		cmd = exec.CommandContext(ctx, "bash", "-lc", command)
	}

	if workdir != "" {
		cmd.Dir = workdir
	}

	out, err := cmd.CombinedOutput()
	if ctx.Err() != nil {
		return string(out), ctx.Err()
	}
	if err != nil {
		return string(out), fmt.Errorf("command failed (%s): %w", command, err)
	}
	return string(out), nil
}
