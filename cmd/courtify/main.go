package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pratszszszzz/Courtify/internal/answer"
	"github.com/pratszszszzz/Courtify/internal/chunker"
	"github.com/pratszszszzz/Courtify/internal/config"
	"github.com/pratszszszzz/Courtify/internal/corpus"
	"github.com/pratszszszzz/Courtify/internal/domain"
	"github.com/pratszszszzz/Courtify/internal/embedding"
	"github.com/pratszszszzz/Courtify/internal/llm"
	"github.com/pratszszszzz/Courtify/internal/retriever"
	"github.com/pratszszszzz/Courtify/internal/server"
	"github.com/pratszszszzz/Courtify/internal/tui"
	"github.com/pratszszszzz/Courtify/internal/vectorstore"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "courtify",
		Short:         "Legal question answering over the Constitution of India and the Bharatiya Nyaya Sanhita",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")

	root.AddCommand(serveCmd(&configPath))
	root.AddCommand(buildIndexCmd(&configPath))
	root.AddCommand(chatCmd(&configPath))
	return root
}

// retrievalStack holds everything needed to answer retrieval queries.
type retrievalStack struct {
	cfg   *config.AppConfig
	log   *zap.Logger
	index *vectorstore.Service
	ret   *retriever.Retriever
}

func newRetrievalStack(ctx context.Context, configPath string, log *zap.Logger) (*retrievalStack, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	emb, err := embedding.FromConfig(ctx, cfg.Embedder)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	split, err := chunker.New(cfg.Chunker.ChunkSize, *cfg.Chunker.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	loader := corpus.NewLoader(log)

	buildFn := func(ctx context.Context) ([]domain.Chunk, error) {
		docs, err := loader.LoadAll(cfg.Sources)
		if err != nil {
			return nil, err
		}
		var chunks []domain.Chunk
		for _, doc := range docs {
			cs, err := split.Chunk(doc)
			if err != nil {
				return nil, err
			}
			chunks = append(chunks, cs...)
		}
		return chunks, nil
	}

	index := vectorstore.NewService(cfg.IndexDir(), emb, buildFn, log)
	exp := retriever.NewExpander(cfg.Expansion)
	ret := retriever.New(index, emb, exp, retriever.Options{
		FetchK:    cfg.Retrieval.FetchK,
		Diversity: cfg.Retrieval.Diversity,
		Lambda:    *cfg.Retrieval.MMRLambda,
	}, log)

	return &retrievalStack{cfg: cfg, log: log, index: index, ret: ret}, nil
}

func (s *retrievalStack) orchestrator(ctx context.Context) (*answer.Orchestrator, error) {
	gen, err := llm.FromConfig(ctx, s.cfg.Generator)
	if err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}
	timeout := time.Duration(s.cfg.Generator.TimeoutSecs) * time.Second
	return answer.New(s.ret, gen, s.cfg.Retrieval.TopK, timeout, s.log), nil
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			stack, err := newRetrievalStack(ctx, *configPath, log)
			if err != nil {
				return err
			}
			if _, err := stack.index.Get(ctx); err != nil {
				return fmt.Errorf("index: %w", err)
			}
			orch, err := stack.orchestrator(ctx)
			if err != nil {
				return err
			}
			srv := server.New(stack.cfg.Server, orch, stack.ret, stack.index, stack.log)
			return srv.Run(ctx)
		},
	}
}

func buildIndexCmd(configPath *string) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "build-index",
		Short: "Build or refresh the persisted vector index",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			stack, err := newRetrievalStack(ctx, *configPath, log)
			if err != nil {
				return err
			}
			ix, err := stack.index.Rebuild(ctx, force)
			if err != nil {
				return err
			}
			fmt.Printf("index ready: %d chunks, model %s\n", ix.Count(), ix.Model())
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "discard any existing index and rebuild from sources")
	return cmd
}

func chatCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			// the terminal belongs to the UI, keep logs out of it
			stack, err := newRetrievalStack(ctx, *configPath, zap.NewNop())
			if err != nil {
				return err
			}
			if _, err := stack.index.Get(ctx); err != nil {
				return fmt.Errorf("index: %w", err)
			}
			orch, err := stack.orchestrator(ctx)
			if err != nil {
				return err
			}
			return tui.Run(orch)
		},
	}
}
