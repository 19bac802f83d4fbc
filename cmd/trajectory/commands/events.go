package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/benvon/trajectory/internal/bootstrap"
	"github.com/benvon/trajectory/internal/models"
	"github.com/benvon/trajectory/internal/queue"
	"github.com/benvon/trajectory/internal/workers"
	"github.com/spf13/cobra"
)

var errNoEventFeed = errors.New("event feed is not configured (set RABBITMQ_URL)")

func newEventsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect the session event feed",
	}
	cmd.AddCommand(newEventsListCmd(opts))
	cmd.AddCommand(newEventsTailCmd(opts))
	return cmd
}

func newEventsListCmd(opts *rootOptions) *cobra.Command {
	var last int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the event journal kept by the worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEnv(cmd, func(env *Env) error {
				events, err := workers.NewEventRecorder(env.Store, "", 0, env.Logger).Journal(cmd.Context())
				if err != nil {
					return err
				}
				if last > 0 && len(events) > last {
					events = events[len(events)-last:]
				}
				return opts.render(cmd.OutOrStdout(), events, func(w io.Writer) {
					printEvents(w, events)
				})
			})
		},
	}
	cmd.Flags().IntVarP(&last, "last", "n", 20, "Show only the last N events (0 for all)")
	return cmd
}

func newEventsTailCmd(opts *rootOptions) *cobra.Command {
	var pattern string
	var count int

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Follow live events from RabbitMQ until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEnv(cmd, func(env *Env) error {
				if env.Config == nil || env.Config.RabbitMQURL == "" {
					return errNoEventFeed
				}

				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				feed, err := bootstrap.ConnectPublisher(ctx, env.Config.RabbitMQURL, 1, nil, env.Logger)
				if err != nil {
					return err
				}
				defer func() {
					_ = feed.Close()
				}()

				return tailEvents(ctx, feed, pattern, count, func(e *models.Event) error {
					return opts.render(cmd.OutOrStdout(), e, func(w io.Writer) {
						fmt.Fprintf(w, "%s  %-18s  habit=%s  momentum=%+.2f  %s\n",
							e.OccurredAt.Format(time.RFC3339), e.Type, e.HabitID, e.Momentum, e.Verdict)
					})
				})
			})
		},
	}
	cmd.Flags().StringVar(&pattern, "pattern", queue.AllEvents, "Topic pattern, e.g. habit.# or analysis.*")
	cmd.Flags().IntVar(&count, "count", 0, "Exit after N events (0 to follow forever)")
	return cmd
}

// tailEvents streams events to emit until ctx ends, the feed closes, or count events were seen
func tailEvents(ctx context.Context, consumer queue.EventConsumer, pattern string, count int, emit func(*models.Event) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	msgs, errs, err := consumer.Consume(ctx, pattern, 10)
	if err != nil {
		return err
	}

	seen := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			return err
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := emit(msg.Event); err != nil {
				return err
			}
			if msg.Channel != nil {
				_ = msg.Ack()
			}
			seen++
			if count > 0 && seen >= count {
				return nil
			}
		}
	}
}

func printEvents(w io.Writer, events []models.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events recorded.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tTYPE\tHABIT\tMOMENTUM\tVERDICT")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%+.2f\t%s\n", e.OccurredAt.Format(time.RFC3339), e.Type, e.HabitID, e.Momentum, e.Verdict)
	}
	_ = tw.Flush()
}
