package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"runtime"
	"slices"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reconcile/internal/config"
	"github.com/vango-dev/reconcile/pkg/host"
	"github.com/vango-dev/reconcile/pkg/host/memdom"
	"github.com/vango-dev/reconcile/pkg/protocol"
	"github.com/vango-dev/reconcile/pkg/reconcile"
	"github.com/vango-dev/reconcile/pkg/render"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

type profile struct {
	Name     string
	Passes   int
	ListSize int
}

var profiles = map[string]profile{
	"fast":     {Name: "fast", Passes: 2000, ListSize: 20},
	"standard": {Name: "standard", Passes: 10000, ListSize: 100},
	"stress":   {Name: "stress", Passes: 20000, ListSize: 500},
}

type benchOptions struct {
	profile  string
	passes   int
	listSize int
	seed     uint64
	format   string
	output   string
}

func benchCmd(g *globalFlags) *cobra.Command {
	opts := benchOptions{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure render passes over a mutating keyed list",
		Long: `Render a keyed list, then apply a random mutation (move, insert, remove
or relabel) before every following pass. Each pass is encoded by the wire
binding and replayed onto an in-memory mirror, and the mirror is checked
against a static render of the last tree at the end.

Profiles:
  fast      2000 passes, 20 items
  standard  10000 passes, 100 items
  stress    20000 passes, 500 items

Examples:
  vreconcile bench
  vreconcile bench --profile standard --format json --output bench.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			p, ok := profiles[opts.profile]
			if !ok {
				return cliError("unknown profile %q: use fast, standard or stress", opts.profile)
			}
			if opts.passes > 0 {
				p.Passes = opts.passes
			}
			if opts.listSize > 0 {
				p.ListSize = opts.listSize
			}
			if opts.format != "text" && opts.format != "json" {
				return cliError("unknown format %q: use text or json", opts.format)
			}

			report, err := runBench(contextOrBackground(cmd), cfg, p, opts.seed)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.output != "" && opts.output != "-" {
				f, err := os.Create(opts.output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			if opts.format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			writeSummary(out, report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.profile, "profile", "p", "fast", "workload profile: fast, standard, stress")
	cmd.Flags().IntVar(&opts.passes, "passes", 0, "number of render passes (overrides the profile)")
	cmd.Flags().IntVar(&opts.listSize, "list-size", 0, "initial list size (overrides the profile)")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 1, "random seed for the mutation sequence")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format: text or json")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the report to a file instead of stdout")

	return cmd
}

type benchReport struct {
	Run        runInfo        `json:"run"`
	Workload   workloadInfo   `json:"workload"`
	LatencyMS  latencyInfo    `json:"latency_ms"`
	Throughput throughputInfo `json:"throughput"`
	Protocol   protocolInfo   `json:"protocol"`
	GC         gcInfo         `json:"gc"`
	Consistent bool           `json:"consistent"`
}

type runInfo struct {
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Go        string `json:"go"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	CPUCount  int    `json:"cpu_count"`
}

type workloadInfo struct {
	Profile  string `json:"profile"`
	Passes   int    `json:"passes"`
	ListSize int    `json:"list_size"`
	Seed     uint64 `json:"seed"`
}

type latencyInfo struct {
	Min float64 `json:"min"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`
}

type throughputInfo struct {
	DurationMS    float64 `json:"duration_ms"`
	PassesPerSec  float64 `json:"passes_per_sec"`
	OpsTotal      int     `json:"ops_total"`
	OpsPerPass    float64 `json:"ops_per_pass"`
	MovedTotal    int     `json:"moved_total"`
	CreatedTotal  int     `json:"created_total"`
	RemovedTotal  int     `json:"removed_total"`
	NoChangePass  int     `json:"no_change_passes"`
	FinalListSize int     `json:"final_list_size"`
}

type protocolInfo struct {
	BytesTotal   int            `json:"bytes_total"`
	AvgBatchSize float64        `json:"avg_batch_bytes"`
	Ops          map[string]int `json:"ops"`
}

type gcInfo struct {
	AllocMB      float64 `json:"alloc_mb"`
	NumGC        uint32  `json:"num_gc"`
	PauseTotalMS float64 `json:"pause_total_ms"`
}

type benchItem struct {
	key   int
	label string
}

// benchList mutates a keyed list and builds its tree.
type benchList struct {
	r     *rand.Rand
	items []benchItem
	next  int
}

func newBenchList(size int, seed uint64) *benchList {
	l := &benchList{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
	for i := 0; i < size; i++ {
		l.items = append(l.items, l.newItem())
	}
	return l
}

func (l *benchList) newItem() benchItem {
	l.next++
	return benchItem{key: l.next, label: "Item " + strconv.Itoa(l.next)}
}

func (l *benchList) mutate() {
	n := len(l.items)
	switch op := l.r.IntN(4); {
	case op == 0 && n > 1:
		i, j := l.r.IntN(n), l.r.IntN(n)
		it := l.items[i]
		l.items = slices.Delete(l.items, i, i+1)
		l.items = slices.Insert(l.items, min(j, len(l.items)), it)
	case op == 1 && n > 1:
		i := l.r.IntN(n)
		l.items = slices.Delete(l.items, i, i+1)
	case op == 2:
		l.items = slices.Insert(l.items, l.r.IntN(n+1), l.newItem())
	default:
		if n == 0 {
			l.items = append(l.items, l.newItem())
			return
		}
		i := l.r.IntN(n)
		l.items[i].label = fmt.Sprintf("Item %d (%d)", l.items[i].key, l.r.IntN(1000))
	}
}

func (l *benchList) tree() *vdom.VNode {
	rows := make([]*vdom.VNode, len(l.items))
	for i, it := range l.items {
		rows[i] = vdom.Li(vdom.Key(it.key), vdom.ClassIf(it.key%2 == 0, "even"), it.label)
	}
	return vdom.Div(vdom.ID("bench"),
		vdom.H2(vdom.Textf("%d items", len(l.items))),
		vdom.Ul(rows),
	)
}

func runBench(ctx context.Context, cfg *config.Config, p profile, seed uint64) (benchReport, error) {
	b := protocol.NewBinding()
	rec := host.NewRecorder(b)
	engine := reconcile.NewEngine(rec,
		reconcile.WithLogger(newLogger(cfg, io.Discard)),
		reconcile.WithMaxDepth(cfg.Engine.MaxDepth),
		reconcile.WithStrictKeys(cfg.Engine.StrictKeys),
	)
	container := reconcile.NewContainer(b.Root())
	mirror := memdom.NewDocument(cfg.Server.RootTag)
	replay := protocol.NewReplayer(mirror, mirror.Root(), nil)

	list := newBenchList(p.ListSize, seed)
	report := benchReport{
		Workload: workloadInfo{Profile: p.Name, Passes: p.Passes, ListSize: p.ListSize, Seed: seed},
		Protocol: protocolInfo{Ops: make(map[string]int)},
	}

	var before runtime.MemStats
	runtime.ReadMemStats(&before)

	samples := make([]time.Duration, 0, p.Passes)
	var last *vdom.VNode
	start := time.Now()
	for i := 0; i < p.Passes; i++ {
		if i > 0 {
			list.mutate()
		}
		tree := list.tree()

		passStart := time.Now()
		stats, err := engine.Render(ctx, tree, container)
		if err != nil {
			return report, err
		}
		batch := b.Flush()
		if batch != nil {
			if _, err := replay.Apply(batch); err != nil {
				return report, err
			}
		}
		samples = append(samples, time.Since(passStart))

		for kind, n := range rec.Counts() {
			report.Protocol.Ops[kind.String()] += n
		}
		t := &report.Throughput
		t.OpsTotal += rec.Len()
		t.MovedTotal += stats.Moved
		t.CreatedTotal += stats.Created
		t.RemovedTotal += stats.Removed
		if rec.Len() == 0 {
			t.NoChangePass++
		}
		report.Protocol.BytesTotal += len(batch)
		rec.Reset()
		last = tree
	}
	elapsed := time.Since(start)

	var after runtime.MemStats
	runtime.ReadMemStats(&after)

	want, err := render.HTML(last)
	if err != nil {
		return report, err
	}
	report.Consistent = mirror.HTML() == want

	report.Run = runInfo{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   version,
		Go:        runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		CPUCount:  runtime.NumCPU(),
	}

	slices.Sort(samples)
	report.LatencyMS = latencyInfo{
		Min: ms(percentile(samples, 0)),
		P50: ms(percentile(samples, 0.50)),
		P95: ms(percentile(samples, 0.95)),
		P99: ms(percentile(samples, 0.99)),
		Max: ms(percentile(samples, 1)),
	}

	t := &report.Throughput
	t.DurationMS = ms(elapsed)
	if elapsed > 0 {
		t.PassesPerSec = float64(p.Passes) / elapsed.Seconds()
	}
	if p.Passes > 0 {
		t.OpsPerPass = float64(t.OpsTotal) / float64(p.Passes)
		report.Protocol.AvgBatchSize = float64(report.Protocol.BytesTotal) / float64(p.Passes)
	}
	t.FinalListSize = len(list.items)

	report.GC = gcInfo{
		AllocMB:      float64(after.TotalAlloc-before.TotalAlloc) / (1 << 20),
		NumGC:        after.NumGC - before.NumGC,
		PauseTotalMS: float64(after.PauseTotalNs-before.PauseTotalNs) / 1e6,
	}
	return report, nil
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := int(math.Ceil(float64(len(sorted))*p)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func writeSummary(w io.Writer, report benchReport) {
	fmt.Fprintln(w, "=== Reconcile Benchmark ===")
	fmt.Fprintf(w, "Profile: %s\n", report.Workload.Profile)
	fmt.Fprintf(w, "Passes: %d\n", report.Workload.Passes)
	fmt.Fprintf(w, "List size: %d (final %d)\n", report.Workload.ListSize, report.Throughput.FinalListSize)
	fmt.Fprintln(w)

	t := report.Throughput
	fmt.Fprintf(w, "Throughput: %.1f passes/s over %.1f ms\n", t.PassesPerSec, t.DurationMS)
	fmt.Fprintf(w, "Host ops: %d (%.2f per pass)\n", t.OpsTotal, t.OpsPerPass)
	fmt.Fprintf(w, "Moved: %d  Created: %d  Removed: %d  Unchanged passes: %d\n",
		t.MovedTotal, t.CreatedTotal, t.RemovedTotal, t.NoChangePass)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Pass latency (render + encode + replay):")
	fmt.Fprintf(w, "  min: %.3f ms\n", report.LatencyMS.Min)
	fmt.Fprintf(w, "  p50: %.3f ms\n", report.LatencyMS.P50)
	fmt.Fprintf(w, "  p95: %.3f ms\n", report.LatencyMS.P95)
	fmt.Fprintf(w, "  p99: %.3f ms\n", report.LatencyMS.P99)
	fmt.Fprintf(w, "  max: %.3f ms\n", report.LatencyMS.Max)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Protocol:")
	fmt.Fprintf(w, "  bytes: %d (%.1f per pass)\n", report.Protocol.BytesTotal, report.Protocol.AvgBatchSize)
	kinds := make([]string, 0, len(report.Protocol.Ops))
	for k := range report.Protocol.Ops {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-20s %d\n", k+":", report.Protocol.Ops[k])
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Go runtime / GC:")
	fmt.Fprintf(w, "  alloc:    %.2f MB\n", report.GC.AllocMB)
	fmt.Fprintf(w, "  num_gc:   %d\n", report.GC.NumGC)
	fmt.Fprintf(w, "  gc_pause: %.2f ms (total)\n", report.GC.PauseTotalMS)
	fmt.Fprintln(w)

	if report.Consistent {
		fmt.Fprintln(w, "Mirror matches the final tree.")
	} else {
		fmt.Fprintln(w, "Mirror DIVERGED from the final tree.")
	}
}
