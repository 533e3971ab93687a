package commands

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/vowelscore/internal/assess"
	"github.com/MrWong99/vowelscore/internal/observe"
)

// maxLineBytes bounds one JSON Lines record.
const maxLineBytes = 4 << 20

func batchCmd(e *env) *cobra.Command {
	var (
		file        string
		workers     int
		metricsFile string
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Score a JSON Lines file of requests",
		Long: `Read one assessment request per line and print one JSON result per line,
in input order. A line that cannot be decoded or assessed yields
{"line": N, "error": "..."} in its place; the rest of the batch still runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("workers") {
				workers = e.cfg.Batch.Workers
			}
			if workers <= 0 {
				workers = runtime.NumCPU()
			}
			if !cmd.Flags().Changed("metrics-file") {
				metricsFile = e.cfg.Batch.MetricsFile
			}

			in, closeIn, err := openInput(cmd, file)
			if err != nil {
				return err
			}
			defer closeIn()

			b := &batch{assessor: e.assessor, metrics: e.metrics, workers: workers}
			if err := b.run(cmd.Context(), in, cmd.OutOrStdout()); err != nil {
				return err
			}

			if metricsFile != "" {
				return writeMetricsFile(e.provider, metricsFile)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSON Lines request file, - for stdin")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "parallel assessments (default: config, then CPU count)")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write a Prometheus textfile with the run's metrics")
	return cmd
}

// batchFailure is printed in place of a result for a failed line. TraceID
// matches the trace_id of the line's log records.
type batchFailure struct {
	Line    int    `json:"line"`
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// batch runs independent assessments on a bounded worker pool.
type batch struct {
	assessor *assess.Assessor
	metrics  *observe.Metrics
	workers  int
}

// run assesses every non-blank line of r and writes the outputs to w in
// input order. Per-line failures are reported inline; only I/O errors and
// cancellation abort the batch.
func (b *batch) run(ctx context.Context, r io.Reader, w io.Writer) error {
	lines, err := readLines(r)
	if err != nil {
		return err
	}

	out := make([][]byte, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(b.workers, 1))

	for i, ln := range lines {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b.metrics.BatchInFlight.Add(gctx, 1)
			defer b.metrics.BatchInFlight.Add(gctx, -1)

			out[i] = b.one(gctx, ln)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("batch: %w", err)
	}

	bw := bufio.NewWriter(w)
	for _, o := range out {
		bw.Write(o)
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("batch: write results: %w", err)
	}

	slog.Info("batch complete", "requests", len(lines), "workers", b.workers)
	return nil
}

// one assesses a single line and returns its JSON output.
func (b *batch) one(ctx context.Context, ln line) []byte {
	ctx, span := observe.StartSpan(ctx, "batch.line",
		trace.WithAttributes(attribute.Int("vowelscore.batch.line", ln.no)))
	defer span.End()

	fail := func(err error) []byte {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observe.Logger(ctx).Warn("batch line failed", "line", ln.no, "err", err)
		data, _ := json.Marshal(batchFailure{
			Line:    ln.no,
			Error:   err.Error(),
			TraceID: observe.CorrelationID(ctx),
		})
		return data
	}

	var req assess.Request
	dec := json.NewDecoder(bytes.NewReader(ln.data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return fail(fmt.Errorf("decode request: %w", err))
	}

	res, err := b.assessor.Assess(ctx, req)
	if err != nil {
		return fail(err)
	}
	data, err := json.Marshal(res)
	if err != nil {
		return fail(fmt.Errorf("encode result: %w", err))
	}
	return data
}

type line struct {
	no   int
	data []byte
}

// readLines returns the non-blank lines of r with their 1-based numbers.
func readLines(r io.Reader) ([]line, error) {
	var lines []line
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)
	for n := 1; sc.Scan(); n++ {
		data := bytes.TrimSpace(sc.Bytes())
		if len(data) == 0 {
			continue
		}
		lines = append(lines, line{no: n, data: bytes.Clone(data)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("batch: read requests: %w", err)
	}
	return lines, nil
}

// writeMetricsFile writes the provider's metrics atomically: node_exporter
// must never read a half-written textfile.
func writeMetricsFile(p *observe.Provider, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".vowelscore-*.prom")
	if err != nil {
		return fmt.Errorf("metrics file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := p.WriteMetrics(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("metrics file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("metrics file: %w", err)
	}
	return nil
}
