package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quotebook/internal/adapters/events"
	"github.com/jsamuelsen/quotebook/internal/domain"
)

// withRuntime builds the components, runs fn and, when it succeeds, prints
// the warnings fn produced. The runtime is closed afterwards.
func withRuntime(cmd *cobra.Command, o *rootOptions, fn func(ctx context.Context, rt *runtime) error) error {
	ctx := cmd.Context()

	rt, err := build(ctx, o.cfg, o.logger)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := rt.Close(); closeErr != nil {
			o.logger.Error("closing runtime", slog.Any("error", closeErr))
		}
	}()

	sub := rt.hub.Subscribe()
	defer sub.Close()

	if err := fn(ctx, rt); err != nil {
		return err
	}

	printStatuses(cmd.ErrOrStderr(), sub)

	return nil
}

// printStatuses writes the warning and error notices already queued on sub.
// Info notices are left to the command's own output.
func printStatuses(w io.Writer, sub *events.Subscription) {
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}

			status, isStatus := ev.(domain.SyncStatus)
			if !isStatus || status.Level == domain.StatusInfo {
				continue
			}

			level := color.New(color.FgYellow)
			if status.Level == domain.StatusError {
				level = color.New(color.FgRed)
			}

			fmt.Fprintf(w, "%s: %s\n", level.Sprint(status.Level), status.Message)
		default:
			return
		}
	}
}

func printQuote(w io.Writer, q domain.Quote) {
	fmt.Fprintf(w, "%q\n  [%s]\n", q.Text, q.Category)
}

func newRandomCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "random",
		Short: "Show a random quote under the active category filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, o, func(ctx context.Context, rt *runtime) error {
				q, err := rt.service.RandomQuote(ctx)
				if domain.IsNotFound(err) {
					fmt.Fprintf(cmd.OutOrStdout(), "No quotes in category %q.\n", rt.service.Filter())
					return nil
				}

				if err != nil {
					return err
				}

				printQuote(cmd.OutOrStdout(), q)

				return nil
			})
		},
	}
}

func newAddCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "add <text> <category>",
		Short:   "Add a quote",
		Example: `  quotebook add "Simplicity is prerequisite for reliability." Engineering`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, o, func(ctx context.Context, rt *runtime) error {
				q, err := rt.service.AddQuote(ctx, args[0], args[1])
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Added to %s.\n", q.Category)

				return nil
			})
		},
	}
}

func newListCommand(o *rootOptions) *cobra.Command {
	var (
		category string
		table    bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored quotes in insertion order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, o, func(_ context.Context, rt *runtime) error {
				tbl := uitable.New()
				tbl.MaxColWidth = 60
				tbl.Wrap = true
				tbl.AddRow("#", "CATEGORY", "TEXT")

				for i, q := range rt.service.Quotes() {
					if category != "" && !q.InCategory(category) {
						continue
					}

					if table {
						tbl.AddRow(i+1, q.Category, q.Text)
					} else {
						printQuote(cmd.OutOrStdout(), q)
					}
				}

				if table {
					fmt.Fprintln(cmd.OutOrStdout(), tbl)
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "only list quotes in this category")
	cmd.Flags().BoolVarP(&table, "table", "t", false, "print an aligned table with positions")

	return cmd
}

func newCategoriesCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories in first-seen order; the active one is starred",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, o, func(ctx context.Context, rt *runtime) error {
				view := rt.service.View(ctx)

				for _, option := range view.Options {
					marker := " "
					if option == view.Selected {
						marker = "*"
					}

					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, option)
				}

				return nil
			})
		},
	}
}

func newFilterCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "filter [category]",
		Short: `Show or select the category filter ("all" clears it)`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, o, func(ctx context.Context, rt *runtime) error {
				if len(args) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), rt.service.Filter())
					return nil
				}

				view := rt.service.SelectCategory(ctx, args[0])

				fmt.Fprintf(cmd.OutOrStdout(), "Filter set to %s.\n", view.Selected)

				if view.Empty {
					fmt.Fprintln(cmd.OutOrStdout(), "No quotes match it yet.")
				}

				return nil
			})
		},
	}
}

func newImportCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Append the quotes of a JSON array file; invalid items are skipped",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, o, func(ctx context.Context, rt *runtime) error {
				r := cmd.InOrStdin()

				if args[0] != "-" {
					f, err := os.Open(args[0])
					if err != nil {
						return err
					}
					defer f.Close()

					r = f
				}

				report, err := rt.service.Import(ctx, r)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d quote(s), skipped %d.\n", report.Imported, report.Skipped)

				return nil
			})
		},
	}
}

func newExportCommand(o *rootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every quote as an indented JSON array",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, o, func(ctx context.Context, rt *runtime) error {
				export, err := rt.service.Export(ctx)
				if err != nil {
					return err
				}

				if out == "" || out == "-" {
					_, err = cmd.OutOrStdout().Write(export.Data)
					return err
				}

				if err := os.WriteFile(out, export.Data, 0o600); err != nil {
					return err
				}

				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d quote(s) to %s.\n", export.Count, out)

				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "file to write, "+`"-" or empty for stdout`)

	return cmd
}

func newSyncCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Merge quotes from the remote feed whose text is not stored yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, o, func(ctx context.Context, rt *runtime) error {
				report, err := rt.service.Sync(ctx)
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), report.Status.Message)

				for _, q := range report.Added {
					fmt.Fprintf(cmd.OutOrStdout(), "  + %s\n", strings.TrimSpace(q.Text))
				}

				return nil
			})
		},
	}
}

func newPushCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Send every local quote to the remote feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, o, func(ctx context.Context, rt *runtime) error {
				if err := rt.service.Push(ctx); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Pushed %d quote(s).\n", len(rt.service.Quotes()))

				return nil
			})
		},
	}
}
