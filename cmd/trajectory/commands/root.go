package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/benvon/trajectory/internal/bootstrap"
	"github.com/benvon/trajectory/internal/config"
	"github.com/benvon/trajectory/internal/logger"
	"github.com/benvon/trajectory/internal/queue"
	"github.com/benvon/trajectory/internal/session"
	"github.com/benvon/trajectory/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Env is what a command works against
type Env struct {
	Config  *config.Config
	Store   storage.Store
	Session *session.Session
	Logger  *zap.Logger
	Close   func()
}

// Opener builds an Env. debug enables debug logging.
type Opener func(ctx context.Context, debug bool) (*Env, error)

// OpenEnv loads configuration and opens a session on the configured store
func OpenEnv(ctx context.Context, debug bool) (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.NewDevelopmentLogger(debug || cfg.ServerDebugMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	store, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}

	var publisher queue.EventPublisher = queue.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		// One attempt: a CLI should not sit in a retry loop
		p, err := bootstrap.ConnectPublisher(ctx, cfg.RabbitMQURL, 1, nil, log)
		if err != nil {
			log.Warn("event_feed_unavailable", zap.Error(err))
		} else {
			publisher = p
		}
	}

	analyzer, err := bootstrap.NewAnalyzer(ctx, cfg, log, debug)
	if err != nil {
		log.Warn("failed_to_create_ai_provider_ai_features_disabled", zap.Error(err))
		analyzer = nil
	}

	sess, err := session.Open(ctx,
		session.WithStore(store),
		session.WithKey(cfg.StoreKey),
		session.WithAnalyzer(analyzer),
		session.WithPublisher(publisher),
		session.WithLogger(log),
	)
	if err != nil {
		_ = publisher.Close()
		_ = store.Close()
		_ = logger.Sync(log)
		return nil, fmt.Errorf("restore habits: %w", err)
	}

	return &Env{
		Config:  cfg,
		Store:   store,
		Session: sess,
		Logger:  log,
		Close: func() {
			_ = publisher.Close()
			if err := store.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close store: %v\n", err)
			}
			_ = logger.Sync(log)
		},
	}, nil
}

type rootOptions struct {
	open   Opener
	debug  bool
	output string
}

// NewRootCmd creates the trajectory command tree
func NewRootCmd(open Opener) *cobra.Command {
	opts := &rootOptions{open: open}

	cmd := &cobra.Command{
		Use:           "trajectory",
		Short:         "Track habits and the momentum they build",
		Long:          "Command line client for the habit registry, momentum score and AI analysis.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.output {
			case OutputText, OutputJSON, OutputYAML:
				return nil
			default:
				return fmt.Errorf("invalid --output %q (must be text, json, or yaml)", opts.output)
			}
		},
	}
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", OutputText, "Output format: text, json, or yaml")

	cmd.AddCommand(newHabitsCmd(opts))
	cmd.AddCommand(newMomentumCmd(opts))
	cmd.AddCommand(newAnalyzeCmd(opts))
	cmd.AddCommand(newEventsCmd(opts))

	return cmd
}

// withEnv opens an Env for the duration of fn
func (o *rootOptions) withEnv(cmd *cobra.Command, fn func(env *Env) error) error {
	env, err := o.open(cmd.Context(), o.debug)
	if err != nil {
		return err
	}
	if env.Close != nil {
		defer env.Close()
	}
	return fn(env)
}

// render writes v as JSON or YAML, or calls text for the text format
func (o *rootOptions) render(w io.Writer, v any, text func(io.Writer)) error {
	switch o.output {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case OutputYAML:
		// Round trip through JSON so field names match the API
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	default:
		text(w)
		return nil
	}
}
