package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/Zachkp/termfolio/internal/content"
	"github.com/Zachkp/termfolio/internal/typewriter"
)

var (
	roleTicks int
	roleLive  bool
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Print the typewriter frames for the hero roles",
	Long: `Prints one line per typewriter tick with the visible text and the delay
before the next tick. With --live the effect plays in place until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		portfolio, err := content.Load(cfg.ContentPath)
		if err != nil {
			return fmt.Errorf("loading content: %w", err)
		}
		m, err := typewriter.New(portfolio.Profile.Roles)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if roleLive {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			err := m.Run(ctx, func(s typewriter.State) {
				fmt.Fprintf(out, "\r\033[K> %s_", s.Text)
			})
			fmt.Fprintln(out)
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		printFrames(out, m, roleTicks)
		return nil
	},
}

func printFrames(w io.Writer, m *typewriter.Machine, ticks int) {
	s := m.Initial()
	for i := 0; i < ticks; i++ {
		s = m.Next(s)
		fmt.Fprintf(w, "%-32q %v\n", s.Text, s.Delay)
	}
}

func init() {
	rolesCmd.Flags().IntVarP(&roleTicks, "ticks", "n", 40, "number of ticks to print")
	rolesCmd.Flags().BoolVar(&roleLive, "live", false, "play the effect in place")
	rootCmd.AddCommand(rolesCmd)
}
