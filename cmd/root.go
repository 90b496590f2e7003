package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zachkp/termfolio/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "termfolio",
	Short: "Retro terminal-themed developer portfolio",
	Long: `termfolio serves a terminal-styled portfolio site, renders the same
content as a full-screen terminal UI, and sends messages through the
site's contact endpoint.

Run without a subcommand to start the web server.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), "")
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "termfolio.yml", "config file path")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
