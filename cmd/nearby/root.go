package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"nearby_go/internal/config"
	"nearby_go/internal/logging"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nearby",
	Short: "Browse the web pages broadcast around you",
	Long: `Scans for nearby URL broadcasts, resolves their metadata and lists
them nearest first. Scanning follows the app lifecycle: it pauses in the
background and resumes when the app is active again.
`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		v := viper.New()
		if err := config.Bind(v, cmd.Flags()); err != nil {
			return err
		}
		cfg, err := config.Load(v)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		closer, err := logging.Setup(cfg.LogLevel, cfg.LogFile)
		if err != nil {
			return err
		}
		defer closer.Close()

		log.WithFields(log.Fields{
			"platform":   cfg.PlatformOS,
			"background": cfg.BackgroundScan,
			"schedule":   cfg.SchedulePath,
			"resolver":   cfg.ResolverURL,
			"headless":   cfg.Headless,
		}).Info("Got config")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := run(ctx, cfg); err != nil {
			log.WithError(err).Error("nearby stopped with error")
			return err
		}
		log.Info("Stopped")
		return nil
	},
}

// Execute is called by main.main. It only needs to happen once.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	config.RegisterFlags(rootCmd.Flags())
}
