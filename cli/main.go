// Command livesched generates a live and upcoming stream schedule from
// a published channel roster.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"livesched/config"
	lhttp "livesched/http"
	"livesched/logging"
	"livesched/pipeline"
	"livesched/sheet"
)

// version is stamped at build time with -ldflags.
var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "livesched",
		Short:         "Generate a live stream schedule from a channel roster",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(syncCmd(), channelsCmd(), versionCmd())
	return root
}

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Collect, classify, and write the schedule file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logging.NewLogger()

			runner, err := pipeline.New(ctx, cfg, log)
			if err != nil {
				return err
			}

			report, err := runner.Run(ctx)

			// A skipped run is a clean exit: scheduled jobs must not
			// page anyone over an empty roster.
			var skip *pipeline.SkipError
			if errors.As(err, &skip) {
				log.WithField("reason", skip.Reason).Info("nothing to do")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d events (%d live, %d upcoming, %d ended) to %s\n",
				report.Events(), report.Live, report.Upcoming, report.Ended, cfg.OutPath)
			return nil
		},
	}
}

func channelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "channels",
		Short: "Print the channel roster as the loader sees it",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logging.NewLogger()

			httpCfg := lhttp.DefaultConfig()
			httpCfg.Timeout = cfg.Timeout
			loader := sheet.NewLoader(lhttp.New(httpCfg), log)

			channels, err := loader.LoadChannels(ctx, cfg.ChannelSheetURL)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPLATFORM\tID/HANDLE\tLEAGUE\tSUBSCRIBERS")
			for _, ch := range channels {
				ident := ch.ID
				if ch.Platform == sheet.PlatformTikTok {
					ident = "@" + ch.Handle
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", ch.Name(), ch.Platform, ident, ch.League, ch.Subscribers)
			}
			return w.Flush()
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the livesched version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "livesched", version)
		},
	}
}
