package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/benvon/trajectory/internal/models"
	"github.com/benvon/trajectory/internal/session"
	"github.com/spf13/cobra"
)

// errNoAnalyzer is returned by analyze when no provider is configured
var errNoAnalyzer = errors.New("AI analysis is not configured (set GEMINI_API_KEY or OPENAI_API_KEY)")

func newMomentumCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "momentum",
		Short: "Show today's momentum, the verdict and the trajectory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEnv(cmd, func(env *Env) error {
				state := env.Session.Snapshot()
				return opts.render(cmd.OutOrStdout(), state, func(w io.Writer) {
					printState(w, state)
				})
			})
		},
	}
}

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Run an AI analysis of the current habits and wait for the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEnv(cmd, func(env *Env) error {
				if !env.Session.HasAnalyzer() {
					return errNoAnalyzer
				}

				ctx := cmd.Context()
				if env.Config != nil && env.Config.AITimeout > 0 {
					var cancel context.CancelFunc
					ctx, cancel = context.WithTimeout(ctx, env.Config.AITimeout)
					defer cancel()
				}

				result, err := env.Session.Analyze(ctx)
				if err != nil {
					if errors.Is(err, session.ErrNoAnalyzer) {
						return errNoAnalyzer
					}
					return fmt.Errorf("analysis failed: %w", err)
				}
				return opts.render(cmd.OutOrStdout(), result, func(w io.Writer) {
					printAnalysis(w, result)
				})
			})
		},
	}
}

func printState(w io.Writer, state session.State) {
	fmt.Fprintln(w, state.VerdictHeader)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Momentum:  %+.2f (%s)\n", state.Momentum, state.Source)
	fmt.Fprintf(w, "Yesterday: %+.2f\n", state.Baseline)
	fmt.Fprintf(w, "Verdict:   %s\n", state.Verdict)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trajectory:")
	for _, p := range state.Trajectory {
		fmt.Fprintf(w, "  %-6s %+.2f\n", p.Date, p.Momentum)
	}
	if state.Analysis != nil {
		fmt.Fprintln(w)
		printAnalysis(w, state.Analysis)
	}
}

func printAnalysis(w io.Writer, a *models.AnalysisResult) {
	fmt.Fprintf(w, "Slope:      %s\n", a.SlopeGradient)
	fmt.Fprintf(w, "Risk:       %s\n", a.RiskAssessment)
	fmt.Fprintf(w, "30 days:    %s\n", a.Projection30Days)
	fmt.Fprintf(w, "Summary:    %s\n", a.AISummary)
}
