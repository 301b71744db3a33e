// Package batch discovers conversion inputs, fans them out over a
// bounded worker pool, and collects one result per file in a
// deterministic order.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/robjsim/excel-csv-converter/internal/converter"
	"github.com/robjsim/excel-csv-converter/internal/types"
)

// Runner runs batches. OnProgress, when set, is called after each job
// completes with the running completion count; it must be safe to
// call from worker goroutines.
type Runner struct {
	conv       *converter.Converter
	log        *zap.Logger
	workers    int
	OnProgress func(done, total int)
}

func NewRunner(conv *converter.Converter, logger *zap.Logger, workers int) *Runner {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{conv: conv, log: logger, workers: workers}
}

// job pairs a ConversionJob with the relative path that orders it.
type job struct {
	rel       string
	types.ConversionJob
	collision bool // destination already claimed by an earlier file
}

// Run converts every qualifying file under inputs into destRoot,
// mirroring folder structure. Results come back in lexicographic
// relative-path order, one per qualifying file. The only error comes
// from a destination root that cannot be created; per-file trouble is
// reported inside the results. Cancelling ctx stops dispatching new
// jobs, lets in-flight ones finish, and returns what completed.
func (r *Runner) Run(ctx context.Context, inputs []string, direction types.Direction, destRoot string) ([]types.ConversionResult, error) {
	if err := os.MkdirAll(destRoot, 0o755); err != nil {
		return nil, fmt.Errorf("destination root %s: %w", destRoot, err)
	}

	jobs := r.discover(inputs, direction, destRoot)
	total := len(jobs)

	results := make([]types.ConversionResult, total)
	var done atomicCounter

	g := new(errgroup.Group)
	g.SetLimit(r.workers)

	dispatched := 0
	for i := range jobs {
		if ctx.Err() != nil {
			break
		}
		dispatched++
		i := i
		g.Go(func() error {
			results[i] = r.runOne(jobs[i])
			if r.OnProgress != nil {
				r.OnProgress(done.inc(), total)
			}
			return nil
		})
	}
	_ = g.Wait()

	return results[:dispatched], nil
}

func (r *Runner) runOne(j job) types.ConversionResult {
	if j.collision {
		res := types.ConversionResult{
			Job:    j.ConversionJob,
			Status: types.StatusFailure,
			Reason: types.ReasonDestinationCollision,
			Detail: "another source already maps to " + j.Destination,
		}
		r.logResult(res)
		return res
	}

	if err := os.MkdirAll(filepath.Dir(j.Destination), 0o755); err != nil {
		res := types.ConversionResult{
			Job:    j.ConversionJob,
			Status: types.StatusFailure,
			Reason: types.ReasonDestNotWritable,
			Detail: err.Error(),
		}
		r.logResult(res)
		return res
	}

	res := r.conv.Convert(j.ConversionJob)
	r.logResult(res)
	return res
}

func (r *Runner) logResult(res types.ConversionResult) {
	if res.Failed() {
		r.log.Warn("conversion failed",
			zap.String("source", res.Job.Source),
			zap.String("reason", string(res.Reason)),
			zap.String("detail", res.Detail))
		return
	}
	r.log.Info("converted",
		zap.String("source", res.Job.Source),
		zap.Strings("outputs", res.Outputs))
}

// discover expands inputs into ordered jobs. Files are taken when the
// extension matches the direction; directories are walked recursively
// with symlinked directories visited at most once. Destination
// collisions are resolved in favor of the lexicographically first
// source; later claimants get a collision marker instead of a write.
func (r *Runner) discover(inputs []string, direction types.Direction, destRoot string) []job {
	var jobs []job
	visited := make(map[string]bool)

	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			// Explicitly requested but missing: report, don't skip.
			jobs = append(jobs, job{rel: filepath.Base(input), ConversionJob: types.ConversionJob{
				Source: input, Direction: direction,
			}})
			continue
		}
		if !info.IsDir() {
			if converter.SourceAccepted(input, direction) {
				jobs = append(jobs, job{rel: filepath.Base(input), ConversionJob: types.ConversionJob{
					Source: input, Direction: direction,
				}})
			}
			continue
		}
		r.walk(input, "", direction, visited, &jobs)
	}

	sort.Slice(jobs, func(a, b int) bool {
		if jobs[a].rel != jobs[b].rel {
			return jobs[a].rel < jobs[b].rel
		}
		return jobs[a].Source < jobs[b].Source
	})

	targetExt := converter.TargetExt(direction)
	claimed := make(map[string]string)
	for i := range jobs {
		rel := jobs[i].rel
		dest := filepath.Join(destRoot, strings.TrimSuffix(rel, filepath.Ext(rel))+targetExt)
		jobs[i].Destination = dest
		if first, ok := claimed[dest]; ok && first != jobs[i].Source {
			jobs[i].collision = true
			continue
		}
		claimed[dest] = jobs[i].Source
	}
	return jobs
}

// walk recurses through dir collecting matching files. rel carries the
// path relative to the originally requested folder so the destination
// tree mirrors the source tree. Unreadable subtrees are logged and
// skipped; the rest of the batch still runs.
func (r *Runner) walk(dir, rel string, direction types.Direction, visited map[string]bool, jobs *[]job) {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		r.log.Warn("skipping unresolvable directory", zap.String("dir", dir), zap.Error(err))
		return
	}
	if visited[resolved] {
		return
	}
	visited[resolved] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		r.log.Warn("skipping unreadable directory", zap.String("dir", dir), zap.Error(err))
		return
	}
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		childRel := filepath.Join(rel, entry.Name())

		isDir := entry.IsDir()
		if entry.Type()&os.ModeSymlink != 0 {
			target, err := os.Stat(full)
			if err != nil {
				continue
			}
			isDir = target.IsDir()
		}

		if isDir {
			r.walk(full, childRel, direction, visited, jobs)
			continue
		}
		if converter.SourceAccepted(full, direction) {
			*jobs = append(*jobs, job{rel: childRel, ConversionJob: types.ConversionJob{
				Source: full, Direction: direction,
			}})
		}
	}
}

type atomicCounter struct {
	n int64
}

func (c *atomicCounter) inc() int {
	return int(atomic.AddInt64(&c.n, 1))
}

// Summarize counts successes and failures in a result sequence.
func Summarize(results []types.ConversionResult) (succeeded, failed int) {
	for _, res := range results {
		if res.Failed() {
			failed++
		} else {
			succeeded++
		}
	}
	return succeeded, failed
}
