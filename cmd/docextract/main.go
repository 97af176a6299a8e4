package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/docextract/internal/app"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/ingest"
	"github.com/joseph-ayodele/docextract/internal/pipeline"
	"github.com/joseph-ayodele/docextract/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

type fileResult struct {
	Path     string         `json:"path"`
	Kind     string         `json:"extract_path,omitempty"`
	Model    string         `json:"model,omitempty"`
	RawID    string         `json:"raw_id,omitempty"`
	Response map[string]any `json:"response,omitempty"`
	Error    string         `json:"error,omitempty"`
}

type runner struct {
	proc   *pipeline.Processor
	repo   repository.ExtractionRepository
	req    pipeline.Request
	logger *slog.Logger

	mu  sync.Mutex
	enc *json.Encoder
}

func main() {
	var (
		file     = flag.String("file", "", "single PDF to extract")
		dir      = flag.String("dir", "", "directory of PDFs to extract (recursive)")
		watch    = flag.Bool("watch", false, "with -dir, keep running and extract PDFs as they appear")
		docType  = flag.String("type", "", "document type (default invoice)")
		fields   = flag.String("fields", "", "comma separated fields to extract")
		inmem    = flag.Bool("inmem", false, "persist to an in-memory SQLite database")
		parallel = flag.Int("parallel", 2, "documents processed concurrently with -dir")
		jsonLogs = flag.Bool("json", false, "emit JSON logs on stderr instead of text")
	)
	flag.Parse()

	if (*file == "") == (*dir == "") {
		printError("Error: exactly one of --file or --dir is required\n")
		os.Exit(2)
	}
	if *watch && *dir == "" {
		printError("Error: --watch requires --dir\n")
		os.Exit(2)
	}

	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var logger *slog.Logger
	if *jsonLogs {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, opts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := common.LoadConfig()
	db, err := app.OpenDatabase(ctx, cfg.Database, *inmem, logger)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	var repo repository.ExtractionRepository
	if db != nil {
		defer db.Close(logger)
		repo = repository.NewExtractionRepository(db, logger)
	}

	proc, _, err := app.NewProcessor(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	r := &runner{
		proc:   proc,
		repo:   repo,
		req:    pipeline.NormalizeRequest(pipeline.Request{DocumentType: *docType, Fields: pipeline.ParseFields(*fields)}),
		logger: logger,
		enc:    json.NewEncoder(os.Stdout),
	}
	r.enc.SetEscapeHTML(false)
	r.enc.SetIndent("", "  ")

	switch {
	case *file != "":
		if res := r.run(ctx, *file); res.Error != "" {
			os.Exit(1)
		}
	case *watch:
		if err := r.watch(ctx, *dir, *parallel); err != nil {
			logger.Error("watch failed", "error", err)
			os.Exit(1)
		}
	default:
		failures, err := r.batch(ctx, *dir, *parallel)
		if err != nil {
			logger.Error("batch failed", "error", err)
			os.Exit(1)
		}
		if failures > 0 {
			os.Exit(1)
		}
	}
}

func (r *runner) batch(ctx context.Context, dir string, parallel int) (int, error) {
	paths, stats, err := ingest.WalkPDFs(dir, true)
	if err != nil {
		return 0, err
	}
	r.logger.Info("directory scanned", "dir", dir, "scanned", stats.Scanned, "matched", stats.Matched, "failed", stats.Failed)

	start := time.Now()
	var failures int
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(parallel, 1))
	for _, p := range paths {
		g.Go(func() error {
			if res := r.run(gctx, p); res.Error != "" {
				mu.Lock()
				failures++
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return failures, err
	}
	r.logger.Info("batch processing complete",
		"files", len(paths),
		"failures", failures,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return failures, nil
}

func (r *runner) watch(ctx context.Context, dir string, parallel int) error {
	events, errs, err := ingest.Watch(ctx, ingest.WatchConfig{
		Roots:       []string{dir},
		InitialScan: true,
		SkipHidden:  true,
		Debounce:    500 * time.Millisecond,
	}, r.logger)
	if err != nil {
		return err
	}
	r.logger.Info("watching for PDFs", "dir", dir)

	g := new(errgroup.Group)
	g.SetLimit(max(parallel, 1))
	for events != nil || errs != nil {
		select {
		case p, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			g.Go(func() error {
				r.run(ctx, p)
				return nil
			})
		case _, ok := <-errs:
			if !ok {
				errs = nil
			}
		}
	}
	return g.Wait()
}

func (r *runner) run(ctx context.Context, path string) fileResult {
	out := fileResult{Path: path}
	content, err := os.ReadFile(path)
	if err != nil {
		out.Error = err.Error()
		r.print(out)
		return out
	}

	if r.repo != nil {
		pipeline.BestEffort(ctx, r.logger, "repository.insert_raw", func(ctx context.Context) error {
			rec, err := r.repo.InsertRaw(ctx, repository.RawInput{
				FileName:     path,
				FileContent:  content,
				DocumentType: r.req.DocumentType,
				Fields:       r.req.Fields,
				LLMModel:     r.proc.ModelName(),
			})
			if err == nil {
				out.RawID = rec.ID.String()
			}
			return err
		})
	}

	res, err := r.proc.Extract(ctx, path, r.req)
	if err != nil {
		r.logger.Error("extraction failed", "path", path, "error", err)
		out.Error = err.Error()
		r.print(out)
		return out
	}
	out.Kind = res.Kind.String()
	out.Model = res.Model
	out.Response = res.Response()

	if r.repo != nil {
		pipeline.BestEffort(ctx, r.logger, "repository.insert_processed", func(ctx context.Context) error {
			var rawID *uuid.UUID
			if id, err := uuid.Parse(out.RawID); err == nil {
				rawID = &id
			}
			_, err := r.repo.InsertProcessed(ctx, repository.ProcessedInput{
				RawID:        rawID,
				FileName:     path,
				DocumentType: r.req.DocumentType,
				Fields:       r.req.Fields,
				Response:     out.Response,
				LLMModel:     res.Model,
			})
			return err
		})
	}
	r.print(out)
	return out
}

func (r *runner) print(res fileResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enc.Encode(res); err != nil {
		r.logger.Error("failed to write result", "path", res.Path, "error", err)
	}
}
