package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/benvon/trajectory/internal/models"
	"github.com/benvon/trajectory/internal/momentum"
	"github.com/benvon/trajectory/internal/validation"
	"github.com/spf13/cobra"
)

func newHabitsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "habits",
		Short: "Manage the habit registry",
	}
	cmd.AddCommand(newHabitsListCmd(opts))
	cmd.AddCommand(newHabitsAddCmd(opts))
	cmd.AddCommand(newHabitsToggleCmd(opts))
	cmd.AddCommand(newHabitsRemoveCmd(opts))
	return cmd
}

func newHabitsListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List habits in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEnv(cmd, func(env *Env) error {
				habits := env.Session.Habits()
				return opts.render(cmd.OutOrStdout(), habits, func(w io.Writer) {
					printHabits(w, habits)
				})
			})
		},
	}
}

func newHabitsAddCmd(opts *rootOptions) *cobra.Command {
	var name, habitType string
	var weight float64

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a habit",
		Long:  "Add a habit. Good habits start missed, bad habits start passed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name = validation.SanitizeText(name)
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			if err := validation.ValidateHabitType(habitType); err != nil {
				return err
			}
			if err := validation.ValidateWeight(weight); err != nil {
				return err
			}

			return opts.withEnv(cmd, func(env *Env) error {
				habit, err := env.Session.AddHabit(cmd.Context(), name, models.HabitType(habitType), weight)
				if err != nil {
					return fmt.Errorf("add habit: %w", err)
				}
				return opts.render(cmd.OutOrStdout(), habit, func(w io.Writer) {
					fmt.Fprintf(w, "Added habit %s (%s).\n", habit.Name, habit.ID)
				})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Habit name (required)")
	cmd.Flags().StringVar(&habitType, "type", string(models.HabitTypeGood), "Habit type: good or bad")
	cmd.Flags().Float64Var(&weight, "weight", 1, "Impact weight between 1 and 5")
	return cmd
}

func newHabitsToggleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ID",
		Short: "Toggle a habit between active and inactive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEnv(cmd, func(env *Env) error {
				habit, toggled := env.Session.ToggleHabit(cmd.Context(), args[0])
				result := map[string]any{"id": args[0], "toggled": toggled}
				if toggled {
					result["habit"] = habit
				}
				return opts.render(cmd.OutOrStdout(), result, func(w io.Writer) {
					if toggled {
						fmt.Fprintf(w, "%s is now %s.\n", habit.Name, habit.Status)
						return
					}
					fmt.Fprintf(w, "No habit with id %s.\n", args[0])
				})
			})
		},
	}
}

func newHabitsRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove ID",
		Aliases: []string{"rm"},
		Short:   "Remove a habit",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEnv(cmd, func(env *Env) error {
				removed := env.Session.RemoveHabit(cmd.Context(), args[0])
				result := map[string]any{"id": args[0], "removed": removed}
				return opts.render(cmd.OutOrStdout(), result, func(w io.Writer) {
					if removed {
						fmt.Fprintf(w, "Removed habit %s.\n", args[0])
						return
					}
					fmt.Fprintf(w, "No habit with id %s.\n", args[0])
				})
			})
		},
	}
}

func printHabits(w io.Writer, habits []models.Habit) {
	if len(habits) == 0 {
		fmt.Fprintln(w, "No habits. Use 'habits add' to create one.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tWEIGHT\tSTATUS\tACTIVE")
	for _, h := range habits {
		active := ""
		if momentum.IsActive(h) {
			active = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%g\t%s\t%s\n", h.ID, h.Name, h.Type, h.Weight, h.Status, active)
	}
	_ = tw.Flush()
}
