// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/docsearch"
	"github.com/poiesic/docsearch/ingestion"
	"github.com/poiesic/docsearch/retrieve"
	"github.com/poiesic/docsearch/server"
)

func main() {
	app := &cli.App{
		Name:  "docsearch",
		Usage: "Local hybrid search over your documentation",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to the index directory (overrides config)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "index",
				Usage:     "Index markdown or plain-text files into the corpus",
				ArgsUsage: "PATH [PATH...]",
				Action:    indexCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Embedding worker pool size",
						Value: 0,
					},
				},
			},
			{
				Name:      "delete",
				Usage:     "Remove a file's passages from the corpus",
				ArgsUsage: "FILE [FILE...]",
				Action:    deleteCommand,
			},
			{
				Name:      "query",
				Usage:     "Run a retrieval query against the corpus",
				ArgsUsage: "QUERY...",
				Action:    queryCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "final-k",
						Aliases: []string{"k"},
						Usage:   "Number of context windows to return (overrides config)",
					},
					&cli.BoolFlag{
						Name:  "rerank",
						Usage: "Enable LLM reranking for this query",
					},
					&cli.StringSliceFlag{
						Name:  "files",
						Usage: "Restrict results to the named source files",
					},
					&cli.BoolFlag{
						Name:  "show-contexts",
						Usage: "Print full context window text, not just citations",
					},
					&cli.BoolFlag{
						Name:  "trace",
						Usage: "Print per-stage candidate ids and timings",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the retrieval API over HTTP",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Usage:   "Listen port (overrides config)",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setupLogger(c *cli.Context) error {
	var level slog.Level
	switch strings.ToLower(c.String("log-level")) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("unknown log level %q", c.String("log-level"))
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	return nil
}

// openCorpus builds the corpus from the config file and CLI overrides.
func openCorpus(c *cli.Context) (*docsearch.Corpus, *fileConfig, error) {
	cfg, err := loadFileConfig(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	if db := c.String("db"); db != "" {
		cfg.DB = db
	}

	aiConfig, err := cfg.aiConfig()
	if err != nil {
		return nil, nil, err
	}

	corpus, err := docsearch.OpenCorpus(cfg.DB, docsearch.WithAIConfig(aiConfig))
	if err != nil {
		return nil, nil, err
	}
	return corpus, cfg, nil
}

func indexCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("nothing to index: pass at least one path")
	}

	corpus, cfg, err := openCorpus(c)
	if err != nil {
		return err
	}
	defer corpus.Close()

	opts := []ingestion.Option{
		ingestion.WithChunkWindow(cfg.Chunking.Tokens, cfg.Chunking.Overlap),
	}
	if size := c.Int("pool-size"); size > 0 {
		opts = append(opts, ingestion.WithPoolSize(size))
	}
	pipeline, err := corpus.NewPipeline(opts...)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	total := 0
	for _, path := range c.Args().Slice() {
		sections, err := loadSections(path)
		if err != nil {
			return err
		}
		count, err := pipeline.IndexSections(c.Context, sections)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d sections, %d passages\n", path, len(sections), count)
		total += count
	}
	fmt.Printf("indexed %d passages\n", total)
	return nil
}

func deleteCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("nothing to delete: pass at least one file name")
	}

	corpus, _, err := openCorpus(c)
	if err != nil {
		return err
	}
	defer corpus.Close()

	pipeline, err := corpus.NewPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	for _, file := range c.Args().Slice() {
		count, err := pipeline.DeleteFile(c.Context, file)
		if err != nil {
			return err
		}
		fmt.Printf("%s: removed %d passages\n", file, count)
	}
	return nil
}

func queryCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("no query given")
	}
	query := strings.Join(c.Args().Slice(), " ")

	corpus, cfg, err := openCorpus(c)
	if err != nil {
		return err
	}
	defer corpus.Close()

	engine, err := corpus.NewEngine(c.Context)
	if err != nil {
		return err
	}

	retrieval := cfg.retrievalConfig()
	if k := c.Int("final-k"); k > 0 {
		retrieval.FinalK = k
	}
	if c.Bool("rerank") {
		retrieval.Rerank.Enabled = true
	}
	if files := c.StringSlice("files"); len(files) > 0 {
		retrieval.Filter = &retrieve.Filter{Files: files}
	}

	result, err := engine.Retrieve(c.Context, query, retrieval)
	if err != nil {
		return err
	}

	printResult(result, c.Bool("show-contexts"), c.Bool("trace"))
	return nil
}

func printResult(result *retrieve.Result, showContexts, showTrace bool) {
	status := result.Status
	fmt.Printf("%d windows (lexical %d, dense %d, fused %d, rerank %s)\n",
		status.WindowCount, status.LexicalHits, status.DenseHits,
		status.FusedCount, status.Rerank)
	if status.Degraded {
		fmt.Printf("degraded: %s\n", status.DegradedReason)
	}

	for i, window := range result.Windows {
		anchor := window.Passages[0]
		for _, passage := range window.Passages {
			if passage.Id == window.AnchorId {
				anchor = passage
			}
		}

		citation := anchor.File
		if len(anchor.HeadingPath) > 0 {
			citation += " > " + strings.Join(anchor.HeadingPath, " > ")
		}
		if anchor.Page > 0 {
			citation += fmt.Sprintf(" (p.%d)", anchor.Page)
		}
		fmt.Printf("%d. %s [%d passages]\n", i+1, citation, len(window.Passages))

		if showContexts {
			for _, passage := range window.Passages {
				fmt.Printf("   %s\n", passage.Text)
			}
		}
	}

	if showTrace && result.Trace != nil {
		fmt.Printf("trace: lexical=%v dense=%v fused=%v anchors=%v\n",
			result.Trace.LexicalIds, result.Trace.DenseIds,
			result.Trace.FusedIds, result.Trace.AnchorIds)
		for stage, ms := range result.Trace.TimersMS {
			fmt.Printf("  %s: %.2fms\n", stage, ms)
		}
	}
}

func serveCommand(c *cli.Context) error {
	corpus, cfg, err := openCorpus(c)
	if err != nil {
		return err
	}
	defer corpus.Close()

	engine, err := corpus.NewEngine(c.Context)
	if err != nil {
		return err
	}

	port := cfg.Server.Port
	if p := c.Int("port"); p > 0 {
		port = p
	}

	srv, err := server.New(engine, server.Config{
		Port:      port,
		Retrieval: cfg.retrievalConfig(),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
