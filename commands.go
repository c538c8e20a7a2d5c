package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"leadflow/internal/config"
	"leadflow/internal/infra/gsheets"
	"leadflow/internal/lead"
	"leadflow/internal/logging"
	"leadflow/internal/storage"
	"leadflow/internal/table"
	"leadflow/internal/telegram"
)

func runCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the intake bot and the status poller",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runService(cmd.Context())
		},
	}
}

func setupSheetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "setup-sheet",
		Short: "Write the canonical header row and freeze it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, env *operatorEnv) error {
				written, err := env.store.EnsureHeader(ctx)
				if err != nil {
					return err
				}
				// WriteHeader freezes row 1 itself; an intact header may still be unfrozen.
				if gs, ok := env.table.(*gsheets.Table); ok && !written {
					if err := gs.FreezeHeader(ctx); err != nil {
						return err
					}
				}
				if written {
					fmt.Fprintf(cmd.OutOrStdout(), "✓ Header written (%d columns)\n", len(lead.Columns))
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "✓ Header already up to date")
				}
				return nil
			})
		},
	}
}

func setStatusCommand() *cobra.Command {
	var comment string

	cmd := &cobra.Command{
		Use:   "set-status <id> <status>",
		Short: "Change the status of a request",
		Long: "Change the status of a request. The requester is notified by the\n" +
			"running service on its next poll cycle.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, env *operatorEnv) error {
				var c *string
				if cmd.Flags().Changed("comment") {
					c = &comment
				}
				if err := env.store.UpdateStatus(ctx, args[0], args[1], c); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Request #%s: %s\n", args[0], args[1])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&comment, "comment", "", "also overwrite the comment cell")
	return cmd
}

func findCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "find <id|phone|chat-id>",
		Short: "Look up requests by id, phone number or chat id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, env *operatorEnv) error {
				recs, err := env.store.FindByIdentifier(ctx, args[0])
				if err != nil {
					return err
				}
				printRecords(cmd.OutOrStdout(), recs)
				return nil
			})
		},
	}
}

func printRecords(w io.Writer, recs []lead.Record) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No requests found")
		return
	}
	for _, r := range recs {
		fmt.Fprintf(w, "#%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.CreatedAt, r.Kind, r.Name, r.Phone, r.Status)
	}
}

// operatorEnv is what the one-shot commands work against.
type operatorEnv struct {
	table table.Table
	store *storage.Store
}

// withStore opens the configured store without requiring a bot token.
func withStore(ctx context.Context, fn func(context.Context, *operatorEnv) error) error {
	cfg, err := config.LoadStoreConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Development: true})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	tbl, closeTable, err := openTable(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeTable()

	return fn(ctx, &operatorEnv{
		table: tbl,
		store: storage.New(tbl,
			storage.WithLogger(logger.Named("store")),
			storage.WithLocation(cfg.Location)),
	})
}

func newTelegram(cfg *config.Config, logger *zap.Logger) (*telegram.Client, error) {
	tg, err := telegram.NewClient(cfg.BotToken,
		telegram.WithLogger(logger.Named("telegram")),
		telegram.WithDebugMode(cfg.DebugMode),
		telegram.WithRate(cfg.MessagesPerSecond),
		telegram.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram client: %w", err)
	}
	return tg, nil
}
