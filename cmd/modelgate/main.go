package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zen-systems/modelgate/pkg/adapter"
	"github.com/zen-systems/modelgate/pkg/config"
	"github.com/zen-systems/modelgate/pkg/governed"
	"github.com/zen-systems/modelgate/pkg/routing"
	"github.com/zen-systems/modelgate/pkg/runtime"
)

var (
	configFile string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "modelgate",
		Short: "Hybrid model selection for memory-constrained local inference",
		Long: `Modelgate decides which local inference backend should serve a
	request: a deterministic heuristic pass first, escalating ambiguous
	requests to an LLM meta-router, while guaranteeing that at most one
	backend holds loaded resources at a time.`,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to selector config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(routeCmd())
	rootCmd.AddCommand(explainCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(modelsCmd())
	rootCmd.AddCommand(validateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func routeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route [text]",
		Short: "Print the routing decision for a request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			selector, mgr, err := buildSelector(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = mgr.UnloadAll() }()

			decision := selector.Select(cmd.Context(), args[0])
			return printJSON(decision.Record())
		},
	}
}

func explainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain [text]",
		Short: "Print the detailed routing breakdown for a request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			selector, mgr, err := buildSelector(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = mgr.UnloadAll() }()

			return printJSON(selector.Explain(cmd.Context(), args[0]))
		},
	}
}

func generateCmd() *cobra.Command {
	var temperature float64
	var maxTokens int

	cmd := &cobra.Command{
		Use:   "generate [text]",
		Short: "Route a request, load the chosen backend, and generate",
		Long: `Runs one full selection-then-generation cycle: picks a backend,
	makes it the single active one, and sends the request to it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			selector, mgr, err := buildSelector(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = mgr.UnloadAll() }()

			decision := selector.Select(cmd.Context(), args[0])
			fmt.Fprintf(os.Stderr, "routed to %s (%.2f, %s)\n",
				decision.Model, decision.Confidence, decision.Source)

			backend, err := mgr.Load(decision.Model)
			if err != nil {
				return err
			}

			var opts *adapter.GenerateOptions
			if temperature > 0 || maxTokens > 0 {
				opts = &adapter.GenerateOptions{Temperature: temperature, MaxTokens: maxTokens}
			}

			out, err := backend.Generate(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}

	cmd.Flags().Float64Var(&temperature, "temperature", 0, "sampling temperature")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "completion token budget")
	return cmd
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List registered backends and their capability profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			_, mgr, err := buildSelector(cfg, logger)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "BACKEND\tMODEL\tLOADED\tOPTIMIZATION")
			for _, info := range mgr.Status().Backends {
				fmt.Fprintf(w, "%s\t%s\t%v\t%s\n",
					info.Kind, info.Name, info.Loaded, info.Profile.Optimization)
			}
			return w.Flush()
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the selector configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Printf("selector config OK: threshold=%.2f semantic=%v backends=%d\n",
				cfg.Selector.ConfidenceThreshold,
				cfg.Selector.SemanticRoutingEnabled(),
				len(cfg.Selector.Models))
			return nil
		},
	}
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	var cfg *config.Config
	var err error
	if configFile != "" {
		cfg, err = config.LoadWithSelectorFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := zap.NewNop()
	if verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return nil, nil, err
		}
	}
	return cfg, logger, nil
}

// buildSelector wires the selector and runtime manager from config. The
// fast backend doubles as the router model for semantic escalation and
// is pre-loaded when escalation is on.
func buildSelector(cfg *config.Config, logger *zap.Logger) (*routing.Selector, *runtime.Manager, error) {
	gen := pickGenerator(cfg)

	adapterOpts := []adapter.Option{adapter.WithLogger(logger)}
	if gen != nil {
		adapterOpts = append(adapterOpts, adapter.WithGenerator(gen))
	}

	hermes := adapter.NewHermes(cfg.Selector.Models[routing.BackendHermes], adapterOpts...)
	mistral := adapter.NewMistral(cfg.Selector.Models[routing.BackendMistral], adapterOpts...)

	mgr := runtime.NewManager(logger)
	if err := mgr.Register(routing.BackendHermes, hermes); err != nil {
		return nil, nil, err
	}
	if err := mgr.Register(routing.BackendMistral, mistral); err != nil {
		return nil, nil, err
	}

	opts := []routing.SelectorOption{routing.WithSelectorLogger(logger)}
	if cfg.Selector.SemanticRoutingEnabled() && gen != nil {
		if _, err := mgr.Load(routing.BackendMistral); err != nil {
			return nil, nil, err
		}
		opts = append(opts,
			routing.WithSemanticRouter(routing.NewSemanticRouter(mistral, cfg.Selector, logger)))
	}

	return routing.NewSelector(cfg.Selector, opts...), mgr, nil
}

// pickGenerator chooses the generation transport: local inference
// first, hosted fallbacks only when nothing local is configured.
func pickGenerator(cfg *config.Config) adapter.Generator {
	if cfg.LlamaCPPBaseURL != "" {
		return governed.NewLlamaCPP(cfg.LlamaCPPBaseURL)
	}
	if cfg.OllamaHost != "" {
		return governed.NewOllama(cfg.OllamaHost)
	}
	if cfg.AnthropicAPIKey != "" {
		if g, err := governed.NewAnthropic(cfg.AnthropicAPIKey); err == nil {
			return g
		}
	}
	if cfg.GoogleAPIKey != "" {
		if g, err := governed.NewGoogle(cfg.GoogleAPIKey); err == nil {
			return g
		}
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
