// Package batch processes many images through the pipeline on a worker pool.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/schollz/progressbar/v3"

	"github.com/GeowazM/calcSpectralIndices/internal/cache"
	"github.com/GeowazM/calcSpectralIndices/internal/composite"
	"github.com/GeowazM/calcSpectralIndices/internal/indices"
	"github.com/GeowazM/calcSpectralIndices/internal/pipeline"
)

type Status string

const (
	StatusOK        Status = "ok"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
	StatusSkipped   Status = "skipped"
)

// Record is the outcome of one job.
type Record struct {
	Input    string
	Status   Status
	Stage    pipeline.Stage
	Error    string
	Stack    string
	Duration time.Duration
}

// ErrOutputCollision marks a job whose output names equal those of an earlier
// job in the same batch.
var ErrOutputCollision = errors.New("output paths collide")

// Notifier receives a summary once a batch finishes.
type Notifier interface {
	SendSuccess(ctx context.Context, message string) error
	SendError(ctx context.Context, message string) error
}

// RunEntry is what the resume cache remembers about a successful image.
type RunEntry struct {
	Input string   `json:"input"`
	Stack string   `json:"stack"`
	Files []string `json:"files"`
}

type Runner struct {
	// Workers bounds the number of images processed at once. Values below 1
	// mean one.
	Workers  int
	Backend  composite.Backend
	Progress io.Writer
	Cache    *cache.FileCache[RunEntry]
	Notify   Notifier
}

// NewCache opens the resume cache stored under dir.
func NewCache(dir string) *cache.FileCache[RunEntry] {
	return cache.NewFileCache[RunEntry](dir)
}

// Run processes jobs and returns one record per job in input order. A failing
// image does not stop the batch. Once ctx is done, images that have not
// started are recorded as cancelled while running images finish.
func (r *Runner) Run(ctx context.Context, jobs []pipeline.Job) []Record {
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	runner := pipeline.NewRunner(r.Backend)
	records := make([]Record, len(jobs))

	var bar *progressbar.ProgressBar
	if r.Progress != nil {
		bar = progressbar.NewOptions(len(jobs),
			progressbar.OptionSetWriter(r.Progress),
			progressbar.OptionSetDescription("Processing images"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	owners := claimOutputs(jobs)
	wp := workerpool.New(workers)
	for i, job := range jobs {
		if owner := owners[i]; owner != i {
			records[i] = Record{
				Input:  job.Input,
				Status: StatusFailed,
				Stage:  pipeline.StageExport,
				Error:  fmt.Sprintf("%v: outputs of %s are already written by %s", ErrOutputCollision, job.Input, jobs[owner].Input),
			}
			slog.Error("image not run", "input", job.Input, "error", records[i].Error)
			if bar != nil {
				bar.Add(1)
			}
			continue
		}
		wp.Submit(func() {
			records[i] = r.runOne(ctx, runner, job)
			if bar != nil {
				bar.Add(1)
			}
		})
	}
	wp.StopWait()
	if bar != nil {
		bar.Finish()
	}

	r.notify(ctx, records)
	return records
}

func (r *Runner) runOne(ctx context.Context, runner *pipeline.Runner, job pipeline.Job) Record {
	start := time.Now()
	rec := Record{Input: job.Input}
	if err := ctx.Err(); err != nil {
		rec.Status = StatusCancelled
		rec.Stage = pipeline.StageCancel
		rec.Error = err.Error()
		return rec
	}

	var key string
	if r.Cache != nil {
		key = r.fingerprint(job)
		if key != "" {
			if prev, ok := r.Cache.Get(key); ok {
				if fileExists(prev.Stack) {
					slog.Info("skipping unchanged image", "input", job.Input, "stack", prev.Stack)
					rec.Status = StatusSkipped
					rec.Stack = prev.Stack
					return rec
				}
				if err := r.Cache.Delete(key); err != nil {
					slog.Warn("failed to drop stale cache entry", "input", job.Input, "error", err)
				}
			}
		}
	}

	// A started image runs to completion even if the batch is cancelled.
	res, err := runner.Run(context.WithoutCancel(ctx), job)
	rec.Duration = time.Since(start)
	if err != nil {
		slog.Error("image failed", "input", job.Input, "error", err)
		rec.Status = StatusFailed
		rec.Error = err.Error()
		var se *pipeline.StageError
		if errors.As(err, &se) {
			rec.Stage = se.Stage
		}
		return rec
	}

	rec.Status = StatusOK
	rec.Stack = res.Stack
	if key != "" {
		if err := r.Cache.Set(key, RunEntry{Input: job.Input, Stack: res.Stack, Files: res.Files()}); err != nil {
			slog.Warn("failed to update resume cache", "input", job.Input, "error", err)
		}
	}
	return rec
}

func (r *Runner) notify(ctx context.Context, records []Record) {
	if r.Notify == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	msg, failed := Summary(records)
	var err error
	if failed {
		err = r.Notify.SendError(ctx, msg)
	} else {
		err = r.Notify.SendSuccess(ctx, msg)
	}
	if err != nil {
		slog.Warn("failed to send notification", "error", err)
	}
}

// Summary describes records in one line per problem and reports whether any
// image failed or was cancelled.
func Summary(records []Record) (string, bool) {
	counts := map[Status]int{}
	var problems []string
	for _, rec := range records {
		counts[rec.Status]++
		if rec.Status == StatusFailed {
			problems = append(problems, fmt.Sprintf("%s [%s]: %s", filepath.Base(rec.Input), rec.Stage, rec.Error))
		}
	}
	msg := fmt.Sprintf("%d images: %d ok, %d skipped, %d failed, %d cancelled",
		len(records), counts[StatusOK], counts[StatusSkipped], counts[StatusFailed], counts[StatusCancelled])
	if len(problems) > 0 {
		msg += "\n" + strings.Join(problems, "\n")
	}
	return msg, counts[StatusFailed]+counts[StatusCancelled] > 0
}

// claimOutputs maps every job to the first job writing the same files. All
// output names derive from the stack path, so equal stack paths mean equal
// outputs.
func claimOutputs(jobs []pipeline.Job) []int {
	first := make(map[string]int, len(jobs))
	owners := make([]int, len(jobs))
	for i, job := range jobs {
		stack := pipeline.NamingFor(job.Input, job.OutputDir, job.Base).Stack()
		if abs, err := filepath.Abs(stack); err == nil {
			stack = abs
		}
		if j, ok := first[stack]; ok {
			owners[i] = j
			continue
		}
		first[stack] = i
		owners[i] = i
	}
	return owners
}

// fingerprint keys a job by what determines its outputs. It is empty when the
// input cannot be inspected; such jobs are never skipped.
func (r *Runner) fingerprint(job pipeline.Job) string {
	abs, err := filepath.Abs(job.Input)
	if err != nil {
		return ""
	}
	info, err := os.Stat(abs)
	if err != nil {
		return ""
	}
	kinds := job.Indices
	if len(kinds) == 0 {
		kinds = indices.All()
	}
	naming := pipeline.NamingFor(job.Input, job.OutputDir, job.Base)
	var bands []string
	for _, b := range job.Layout.Bands {
		bands = append(bands, fmt.Sprintf("%d:%s:%t", b.Index, b.Role, b.Export))
	}
	return r.Cache.GenerateKey(
		abs, info.Size(), info.ModTime().UnixNano(),
		job.Layout.Name, job.Layout.BandCount, strings.Join(bands, ","),
		kinds, naming.Stack(), job.Preview, job.Footprint,
	)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
