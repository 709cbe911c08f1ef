package main

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

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/five82/logdeck/internal/app"
	"github.com/five82/logdeck/internal/jobmon"
	"github.com/five82/logdeck/internal/present"
	"github.com/five82/logdeck/internal/reportapi"
)

var (
	flagConfigPath string
	flagPoll       int
	flagAPIURL     string
	flagDebug      bool
)

func main() {
	os.Exit(run())
}

func run() int {
	// A missing .env is normal.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "logdeck: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "logdeck",
		Short:        "Terminal client for the log report service",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), options())
		},
	}
	root.SilenceErrors = true

	root.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path (default ~/.config/logdeck/config.toml)")
	root.PersistentFlags().IntVar(&flagPoll, "poll", 0, "job poll interval in seconds (default from config, 2s)")
	root.PersistentFlags().StringVar(&flagAPIURL, "api", "", "report service base URL")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "debug logging")

	root.AddCommand(serversCmd(), lsCmd(), generateCmd(), watchCmd(), stopCmd())
	return root
}

func options() app.Options {
	return app.Options{
		ConfigPath: flagConfigPath,
		PollEvery:  flagPoll,
		APIURL:     flagAPIURL,
		Debug:      flagDebug,
	}
}

// withEnv runs fn against a fully set up environment and closes it afterwards.
func withEnv(fn func(env *app.Env) error) error {
	env, err := app.Setup(options())
	if err != nil {
		return err
	}
	defer func() { _ = env.Close() }()
	return fn(env)
}

func serversCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "servers",
		Short: "List servers known to the report service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(func(env *app.Env) error {
				ctx, cancel := context.WithTimeout(cmd.Context(), env.Config.RequestTimeout)
				defer cancel()
				servers, err := env.Client.ListServers(ctx)
				if err != nil {
					return apiError("list servers", err)
				}
				return printServers(cmd.OutOrStdout(), servers)
			})
		},
	}
}

func printServers(out io.Writer, servers []reportapi.Server) error {
	if len(servers) == 0 {
		_, err := fmt.Fprintln(out, "No servers")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tHOST\tPORT\tDATABASE")
	for _, s := range servers {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.Name, s.Host, s.Port, s.Database)
	}
	return tw.Flush()
}

func lsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <server>",
		Short: "List log files and reports of a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			server := args[0]
			return withEnv(func(env *app.Env) error {
				var (
					logs    []reportapi.LogEntry
					reports []reportapi.ReportEntry
				)
				g, ctx := errgroup.WithContext(cmd.Context())
				g.Go(func() error {
					ctx, cancel := context.WithTimeout(ctx, env.Config.RequestTimeout)
					defer cancel()
					var err error
					logs, err = env.Client.ListLogs(ctx, server)
					return apiError("list logs", err)
				})
				g.Go(func() error {
					ctx, cancel := context.WithTimeout(ctx, env.Config.RequestTimeout)
					defer cancel()
					var err error
					reports, err = env.Client.ListReports(ctx, server)
					return apiError("list reports", err)
				})
				if err := g.Wait(); err != nil {
					return err
				}
				return printListing(cmd.OutOrStdout(), server, logs, reports, time.Now())
			})
		},
	}
}

func printListing(out io.Writer, server string, logs []reportapi.LogEntry, reports []reportapi.ReportEntry, now time.Time) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "LOGS (%s)\n", server)
	items := present.RenderLogs(logs)
	if len(items) == 0 {
		fmt.Fprintln(tw, "  none")
	}
	for _, item := range items {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", item.Name, item.Size, item.Date)
	}

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "REPORTS")
	rendered := present.RenderReports(server, reports, now)
	if len(rendered) == 0 {
		fmt.Fprintln(tw, "  none")
	}
	for _, item := range rendered {
		status := item.Age
		if item.Processing {
			status = "processing"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", item.Name, item.Created, status)
	}
	return tw.Flush()
}

func generateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate <server> <log>",
		Short: "Generate a report from a log file and follow the job",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(func(env *app.Env) error {
				sess, err := app.Generate(cmd.Context(), env.Client, args[0], args[1], watchOptions(cmd, env))
				return jobResult(cmd.Context(), sess, err)
			})
		},
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <server> <report>",
		Short: "Follow a report that is being generated",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(func(env *app.Env) error {
				sess, err := app.Watch(cmd.Context(), env.Client, args[0], args[1], watchOptions(cmd, env))
				return jobResult(cmd.Context(), sess, err)
			})
		},
	}
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <server> <report>",
		Short: "Stop report generation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(func(env *app.Env) error {
				ctx, cancel := context.WithTimeout(cmd.Context(), env.Config.RequestTimeout)
				defer cancel()
				if err := env.Client.StopJob(ctx, args[0], args[1]); err != nil {
					return apiError("stop report generation", err)
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Report generation stopped: %s\n", args[1])
				return err
			})
		},
	}
}

func watchOptions(cmd *cobra.Command, env *app.Env) app.WatchOptions {
	return app.WatchOptions{
		Interval: env.Config.PollInterval,
		Out:      cmd.OutOrStdout(),
		Progress: cmd.ErrOrStderr(),
	}
}

// jobResult maps a finished headless watch to the command's error. Ctrl-C
// leaves the job running on the server and is not a failure.
func jobResult(ctx context.Context, sess jobmon.Session, err error) error {
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	if sess.State == jobmon.Failed {
		return fmt.Errorf("report %s failed", sess.Report)
	}
	return nil
}

func apiError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %s", op, reportapi.Message(err))
}
