package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/vistoria/internal/buildinfo"
	"github.com/dmitrijs2005/vistoria/internal/client/config"
	"github.com/dmitrijs2005/vistoria/internal/client/models"
	"github.com/dmitrijs2005/vistoria/internal/server/auth"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the vistoria command tree.
func NewRootCommand() *cobra.Command {
	flags := &config.Flags{}

	root := &cobra.Command{
		Use:           "vistoria",
		Short:         "Field client for property inspections",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags.Register(root)

	// withApp resolves the configuration and runs fn against a fresh App.
	withApp := func(fn func(ctx context.Context, a *App, cfg *config.Config, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.Resolve(cmd)
			if err != nil {
				return err
			}
			app, err := NewApp(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.Close()
			return fn(cmd.Context(), app, cfg, args)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "cards",
			Short: "List the card catalog",
			Args:  cobra.NoArgs,
			RunE: withApp(func(ctx context.Context, a *App, _ *config.Config, _ []string) error {
				return a.Cards(ctx)
			}),
		},
		newListCommand(withApp),
		&cobra.Command{
			Use:   "show <inspection>",
			Short: "Show an inspection with its card states",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(func(ctx context.Context, a *App, _ *config.Config, args []string) error {
				return a.Show(ctx, args[0])
			}),
		},
		newCreateCommand(withApp),
		newSetCommand(withApp),
		&cobra.Command{
			Use:   "photo <inspection> <card> <file>",
			Short: "Upload a photo for a card",
			Args:  cobra.ExactArgs(3),
			RunE: withApp(func(ctx context.Context, a *App, _ *config.Config, args []string) error {
				return a.Photo(ctx, args[0], args[1], args[2])
			}),
		},
		&cobra.Command{
			Use:   "submit <inspection>",
			Short: "Mark a fully answered inspection as completed",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(func(ctx context.Context, a *App, _ *config.Config, args []string) error {
				return a.Submit(ctx, args[0])
			}),
		},
		&cobra.Command{
			Use:   "sync [inspection]",
			Short: "Send card edits stored while offline",
			Args:  cobra.MaximumNArgs(1),
			RunE: withApp(func(ctx context.Context, a *App, _ *config.Config, args []string) error {
				id := ""
				if len(args) == 1 {
					id = args[0]
				}
				return a.Sync(ctx, id)
			}),
		},
		&cobra.Command{
			Use:   "walk <inspection>",
			Short: "Answer every card interactively",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(func(ctx context.Context, a *App, _ *config.Config, args []string) error {
				return a.Walk(ctx, args[0])
			}),
		},
		newTokenCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				buildinfo.PrintBuildData(cmd.OutOrStdout())
			},
		},
	)

	return root
}

type appRunner func(fn func(ctx context.Context, a *App, cfg *config.Config, args []string) error) func(*cobra.Command, []string) error

func newListCommand(withApp appRunner) *cobra.Command {
	var corretor string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List inspections, newest schedule first",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *App, cfg *config.Config, _ []string) error {
			id := corretor
			if id == "" {
				id = cfg.CorretorID
			}
			return a.List(ctx, id)
		}),
	}
	cmd.Flags().StringVar(&corretor, "for", "", "only inspections of this agent (defaults to --corretor)")
	return cmd
}

func newCreateCommand(withApp appRunner) *cobra.Command {
	var in models.NewInspection
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Schedule a new inspection",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *App, cfg *config.Config, _ []string) error {
			if in.CorretorID == "" {
				in.CorretorID = cfg.CorretorID
			}
			return a.Create(ctx, in)
		}),
	}
	cmd.Flags().StringVar(&in.PropertyID, "property", "", "property id")
	cmd.Flags().StringVar(&in.CorretorID, "for", "", "agent id (defaults to --corretor)")
	cmd.Flags().StringVar(&in.ScheduledDate, "date", "", "scheduled date, YYYY-MM-DD")
	cmd.Flags().StringVar(&in.ScheduledTime, "time", "", "scheduled time, HH:MM")
	_ = cmd.MarkFlagRequired("property")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("time")
	return cmd
}

func newSetCommand(withApp appRunner) *cobra.Command {
	var (
		obs string
		cmd *cobra.Command
	)
	cmd = &cobra.Command{
		Use:   "set <inspection> <card> <ok|defect|non_compliant>",
		Short: "Set the status of one card",
		Args:  cobra.ExactArgs(3),
		RunE: withApp(func(ctx context.Context, a *App, _ *config.Config, args []string) error {
			var o *string
			if cmd.Flags().Changed("obs") {
				o = &obs
			}
			return a.Set(ctx, args[0], args[1], args[2], o)
		}),
	}
	cmd.Flags().StringVarP(&obs, "obs", "o", "", "observation text")
	return cmd
}

func newTokenCommand() *cobra.Command {
	var (
		user   string
		role   string
		ttl    time.Duration
		secret string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token signed with the server secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if role != auth.RoleAdmin && role != auth.RoleCorretor {
				return fmt.Errorf("unknown role %q", role)
			}
			key := []byte(secret)
			if len(key) == 0 {
				key = []byte(os.Getenv("VISTORIA_SECRET_KEY"))
			}
			if len(key) == 0 {
				var err error
				if key, err = GetSecret(cmd.ErrOrStderr(), "Server secret"); err != nil {
					return err
				}
			}
			tok, err := auth.GenerateToken(user, role, key, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id carried by the token")
	cmd.Flags().StringVar(&role, "role", auth.RoleCorretor, "admin or corretor")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	cmd.Flags().StringVar(&secret, "secret", "", "signing secret (VISTORIA_SECRET_KEY or prompt when empty)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
