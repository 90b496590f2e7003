package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Zachkp/termfolio/internal/content"
	"github.com/Zachkp/termfolio/internal/theme"
	"github.com/Zachkp/termfolio/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse the portfolio in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		portfolio, err := content.Load(cfg.ContentPath)
		if err != nil {
			return fmt.Errorf("loading content: %w", err)
		}

		path := cfg.ThemeFile
		if path == "" {
			path = theme.DefaultFilePath()
		}
		themes, err := theme.NewStore(theme.NewFileKV(path))
		if err != nil {
			log.Printf("Warning: %v", err)
		}

		m, err := tui.New(portfolio, themes, tui.Options{
			Threshold: &cfg.Reveal.Threshold,
			Once:      cfg.Reveal.Once,
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return tui.Run(ctx, m)
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
