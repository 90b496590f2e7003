package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Zachkp/termfolio/internal/config"
	"github.com/Zachkp/termfolio/internal/contact"
	"github.com/Zachkp/termfolio/internal/content"
	"github.com/Zachkp/termfolio/internal/server"
	"github.com/Zachkp/termfolio/internal/store"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web portfolio",
	Long: `Starts the web server with the HTMX front-end, the JSON contact endpoint,
visitor analytics and the admin dashboard. The content file is reloaded on
change when watch_content is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), serveAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address, overrides config")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context, addr string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}
	gin.SetMode(cfg.GinMode)

	portfolio, err := content.Load(cfg.ContentPath)
	if err != nil {
		return fmt.Errorf("loading content: %w", err)
	}

	var db *store.DB
	if cfg.DBPath != "" {
		db, err = store.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()
		log.Printf("Database initialized at %s", cfg.DBPath)
	}

	srv, err := server.New(server.Options{
		Config:  cfg,
		Content: portfolio,
		DB:      db,
		Sender:  newSender(cfg),
	})
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stop()
		return srv.Run(ctx)
	})
	g.Go(func() error { return srv.CleanupLoop(ctx) })
	if cfg.WatchContent && cfg.ContentPath != "" {
		g.Go(func() error { return content.Watch(ctx, cfg.ContentPath, srv.SetContent) })
	}
	return g.Wait()
}

// newSender picks how accepted messages leave the server: relayed to another
// contact endpoint, or emailed over SMTP.
func newSender(cfg *config.Config) contact.Sender {
	if cfg.Contact.Forward != "" {
		log.Printf("Forwarding contact messages to %s", cfg.Contact.Forward)
		return contact.NewClient(cfg.Contact.Forward)
	}
	if cfg.SMTP.User == "" || cfg.SMTP.Pass == "" {
		log.Println("WARNING: SMTP credentials not set; contact messages will be archived but not emailed.")
	}
	return contact.NewMailer(cfg.SMTP)
}
