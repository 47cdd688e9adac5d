package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/solardash/internal/dataset"
	"github.com/KaramelBytes/solardash/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard views as a JSON API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		opt := server.DefaultOptions()
		if opt.Summary, err = c.SummaryOptions(); err != nil {
			return err
		}
		opt.ListenAddr = c.ListenAddr
		if serveAddr != "" {
			opt.ListenAddr = serveAddr
		}
		opt.RankColumn = c.RankColumn
		opt.TopK = c.TopK
		opt.SeriesLimit = c.SeriesLimit
		opt.ExportName = c.ExportName

		l := c.Loader()
		l.Logger = slog.Default()
		var provider dataset.Provider = l
		if c.Cache {
			memo := dataset.NewMemo(l)
			memo.Timeout = 2 * time.Minute
			// fail fast on broken sources before accepting requests
			if _, err := memo.Load(cmd.Context()); err != nil {
				return err
			}
			provider = memo
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return server.New(opt, provider, slog.Default()).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides listen_addr)")
	rootCmd.AddCommand(serveCmd)
}
