// Package commands implements the memegen CLI.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/DiscountLegolas/memegen/cmd/memegen/internal/config"
	"github.com/DiscountLegolas/memegen/pkg/caption"
	"github.com/DiscountLegolas/memegen/pkg/embed"
	"github.com/DiscountLegolas/memegen/pkg/exemplar"
	"github.com/DiscountLegolas/memegen/pkg/lang"
	"github.com/DiscountLegolas/memegen/pkg/pipeline"
	"github.com/DiscountLegolas/memegen/pkg/prompt"
	"github.com/DiscountLegolas/memegen/pkg/recommend"
	"github.com/DiscountLegolas/memegen/pkg/retrieve"
	"github.com/DiscountLegolas/memegen/pkg/template"
)

var (
	configPath string
	verbose    bool

	globalConfig  *config.Config
	configLoadErr error
)

var rootCmd = &cobra.Command{
	Use:   "memegen",
	Short: "Retrieval-grounded meme caption generation",
	Long: `memegen generates meme captions grounded in real caption examples.

A topic is matched against a template collection, the nearest historical
caption sets are retrieved, and a structured-output model produces one
caption per template slot.

Examples:
  # Rank templates for a topic
  memegen recommend "code review on friday"

  # Generate captions for a template
  memegen caption "code review on friday" --template drake

  # Freeform captions without a template
  memegen caption "code review on friday" --slots 3`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func initConfig() {
	cfg, err := config.Load(configPath)
	if err != nil {
		configLoadErr = err
		return
	}
	globalConfig = cfg

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	} else {
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// getConfig returns the loaded configuration.
func getConfig() (*config.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

// newEmbedder builds the configured embedder, wrapped in the vector cache.
func newEmbedder(cfg *config.Config) (embed.Embedder, error) {
	var inner embed.Embedder
	switch cfg.Embedding.Provider {
	case "", "openai":
		key := config.ResolveKey(cfg.Embedding.APIKey, cfg.Embedding.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("embedding api key not configured")
		}
		var opts []embed.Option
		if cfg.Embedding.Model != "" {
			opts = append(opts, embed.WithModel(cfg.Embedding.Model))
		}
		if cfg.Embedding.Dimension > 0 {
			opts = append(opts, embed.WithDimension(cfg.Embedding.Dimension))
		}
		if cfg.Embedding.BaseURL != "" {
			opts = append(opts, embed.WithBaseURL(cfg.Embedding.BaseURL))
		}
		inner = embed.NewOpenAI(key, opts...)
	case "hash":
		inner = embed.NewHash(cfg.Embedding.Dimension)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
	cached, err := embed.NewCached(inner, cfg.Embedding.CacheDir)
	if err != nil {
		return nil, err
	}
	return cached, nil
}

// newGenerator builds the configured caption generator.
func newGenerator(cmd *cobra.Command, cfg *config.Config) (caption.Generator, error) {
	key := config.ResolveKey(cfg.Generation.APIKey, cfg.Generation.APIKeyEnv)
	switch cfg.Generation.Provider {
	case "", "openai":
		if key == "" {
			return nil, fmt.Errorf("generation api key not configured")
		}
		var opts []caption.OpenAIOption
		if cfg.Generation.Model != "" {
			opts = append(opts, caption.WithOpenAIModel(cfg.Generation.Model))
		}
		if cfg.Generation.BaseURL != "" {
			opts = append(opts, caption.WithOpenAIBaseURL(cfg.Generation.BaseURL))
		}
		return caption.NewOpenAIGenerator(key, opts...), nil
	case "gemini":
		if key == "" {
			return nil, fmt.Errorf("generation api key not configured")
		}
		return newGeminiGenerator(cmd.Context(), key, cfg.Generation.Model)
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Generation.Provider)
	}
}

// newPipeline wires the full pipeline from the loaded configuration.
// The returned closer releases the template store.
func newPipeline(cmd *cobra.Command, needGenerator bool) (*pipeline.Pipeline, func() error, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Templates.File == "" {
		return nil, nil, fmt.Errorf("templates.file not configured")
	}

	loader, err := template.NewLoader(cfg.Templates.StoreDir, cfg.Templates.File)
	if err != nil {
		return nil, nil, err
	}
	templates, err := loader.Load(cmd.Context())
	if err != nil {
		loader.Close()
		return nil, nil, err
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		loader.Close()
		return nil, nil, err
	}

	var orchestrator *caption.Orchestrator
	if needGenerator {
		gen, err := newGenerator(cmd, cfg)
		if err != nil {
			loader.Close()
			return nil, nil, err
		}
		orchestrator = caption.NewOrchestrator(gen)
	} else {
		orchestrator = caption.NewOrchestrator(nil)
	}

	store := exemplar.NewStore(cfg.Exemplars.Dir, cfg.Exemplars.Aliases)
	p, err := pipeline.New(pipeline.Config{
		Templates:    templates,
		Recommender:  recommend.NewRecommender(embedder),
		Retriever:    retrieve.NewRetriever(store, embedder),
		Composer:     prompt.NewComposer(lang.NewDetector(), lang.NewGoogle()),
		Orchestrator: orchestrator,
	})
	if err != nil {
		loader.Close()
		return nil, nil, err
	}
	return p, loader.Close, nil
}
