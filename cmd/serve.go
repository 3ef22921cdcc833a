package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/eda-cli/internal/web"
	"github.com/spf13/cobra"
)

var (
	srvAddr   string
	srvShare  bool
	srvOutDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the upload-and-analyze web form",
	Example: `  eda serve
  eda serve --addr :8080 --out-dir /tmp/eda
  eda serve --share`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := firstNonEmpty(srvAddr, cfg.ListenAddr)
		share := cfg.Share
		if cmd.Flags().Changed("share") {
			share = srvShare
		}
		outDir := firstNonEmpty(srvOutDir, cfg.OutputDir, ".")

		p := buildPipeline(runOverrides{outDir: outDir, load: baseLoadOptions()})
		s := web.NewServer(web.Config{
			Addr:          addr,
			Share:         share,
			OutputDir:     outDir,
			MaxUploadMB:   cfg.MaxUploadMB,
			RatePerMinute: cfg.RatePerMin,
		}, p, logger)

		ctx, stop := signal.NotifyContext(contextOrBackground(cmd.Context()), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return s.Serve(ctx, func(bound string) {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Web form listening on http://%s\n", bound)
			if share {
				fmt.Fprintln(cmd.ErrOrStderr(), "⚠ Warning: --share binds all interfaces; anyone on the network can upload files")
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&srvAddr, "addr", "", "listen address (overrides listen_addr, default :7860)")
	serveCmd.Flags().BoolVar(&srvShare, "share", false, "bind all interfaces instead of loopback")
	serveCmd.Flags().StringVar(&srvOutDir, "out-dir", "", "directory for generated images (overrides output_dir)")
}
