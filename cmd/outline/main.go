// Command outline extracts title and heading outlines from every supported
// document in a directory and writes one result file per document.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/dgallion1/docoutline/internal/export"
	"github.com/dgallion1/docoutline/internal/outline"
	"github.com/dgallion1/docoutline/internal/parser"
	"github.com/dgallion1/docoutline/internal/pipeline"
)

type options struct {
	inDir   string
	outDir  string
	format  export.Format
	workers int
	mutool  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stderr))
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("outline", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inDir := fs.String("in", "input", "Directory of documents to process")
	outDir := fs.String("out", "output", "Directory for result files (created if missing)")
	format := fs.String("format", "json", "Output format: json, markdown, html, docx, xlsx")
	workers := fs.Int("workers", 4, "Documents processed in parallel")
	mutool := fs.Bool("mutool", false, "Fall back to mutool when native PDF extraction fails")
	verbose := fs.Bool("v", false, "Debug logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	f, err := export.ParseFormat(*format)
	if err != nil {
		log.Error("invalid format", "error", err)
		return 2
	}
	opts := options{
		inDir:   *inDir,
		outDir:  *outDir,
		format:  f,
		workers: max(*workers, 1),
		mutool:  *mutool,
	}

	failed, err := processDir(ctx, opts, log)
	if err != nil {
		log.Error("batch failed", "error", err)
		return 1
	}
	if failed > 0 {
		return 1
	}
	return 0
}

// processDir runs every supported file directly under opts.inDir through the
// pipeline and returns the number of documents that failed.
func processDir(ctx context.Context, opts options, log *slog.Logger) (int, error) {
	entries, err := os.ReadDir(opts.inDir)
	if err != nil {
		return 0, fmt.Errorf("read input dir: %w", err)
	}
	if err := os.MkdirAll(opts.outDir, 0755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !parser.IsSupportedExtension(e.Name()) {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	log.Info("processing documents", "count", len(files), "in", opts.inDir, "out", opts.outDir, "format", opts.format)

	worker := pipeline.NewWorker(outline.NewBuilder(), nil, parser.Options{FallbackMutool: opts.mutool}, nil, log)

	var (
		mu     sync.Mutex
		failed int
		wg     sync.WaitGroup
	)
	sem := make(chan struct{}, opts.workers)
	for _, name := range files {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(name string) {
			defer func() { <-sem; wg.Done() }()
			if err := processFile(ctx, worker, opts, name); err != nil {
				log.Error("document failed", "file", name, "error", err)
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			log.Debug("document written", "file", name)
		}(name)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return failed, err
	}
	log.Info("batch complete", "documents", len(files), "failed", failed)
	return failed, nil
}

func processFile(ctx context.Context, worker *pipeline.Worker, opts options, name string) error {
	data, err := os.ReadFile(filepath.Join(opts.inDir, name))
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	job := pipeline.NewJob(name, data)
	worker.Process(ctx, job)
	snap := job.Snapshot()
	res, ok := job.Result()
	if snap.Status == pipeline.StatusFailed || !ok {
		return fmt.Errorf("%s", strings.Join(snap.Progress.Errors, "; "))
	}

	outPath := filepath.Join(opts.outDir, strings.TrimSuffix(name, filepath.Ext(name))+opts.format.Extension())
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := export.Write(out, res, opts.format); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
