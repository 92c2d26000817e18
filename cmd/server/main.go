package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"donutshop/internal/api"
	"donutshop/internal/config"
	"donutshop/internal/db"
	"donutshop/internal/service"
	"donutshop/repository"
)

func main() {
	root := &cobra.Command{
		Use:          "donutshop",
		Short:        "Donut shop order queue service",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(), seedCmd(), rollbackCmd())

	if err := root.Execute(); err != nil {
		log.WithError(err).Fatal("command failed")
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log.Info("configuration loaded: ", cfg)

			d, err := db.Open(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer func() {
				if err := d.Close(); err != nil {
					log.WithError(err).Warn("close db")
				}
			}()

			orders := repository.NewOrderRepository(d, cfg.Queue.PremiumCutoff)
			if n, err := orders.CountPending(cmd.Context()); err == nil {
				log.WithField("pending", n).Info("order queue loaded")
			}
			svc := service.New(orders, cfg.Queue)
			srv := api.New(svc)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Serve(ctx, cfg.HTTP.Address)
		},
	}
}

// seedCmd loads a handful of demo orders so the queue has something to show.
func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo orders into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			d, err := db.Open(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer d.Close()

			orders := repository.NewOrderRepository(d, cfg.Queue.PremiumCutoff)

			now := time.Now()
			demo := []struct {
				clientID int64
				quantity int
				age      time.Duration
			}{
				{1, 5, 60 * time.Second},
				{1042, 3, 50 * time.Second},
				{5, 6, 40 * time.Second},
				{42, 50, 30 * time.Second},
				{1100, 3, 20 * time.Second},
			}
			for _, o := range demo {
				if _, err := orders.Create(cmd.Context(), o.clientID, o.quantity, now.Add(-o.age)); err != nil {
					return err
				}
				log.WithFields(log.Fields{"client": o.clientID, "quantity": o.quantity}).Info("seeded order")
			}
			return nil
		},
	}
}

// rollbackCmd reverts the most recently applied schema migration.
func rollbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rollback",
		Short: "Roll back the last applied database migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			d, err := db.Open(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer d.Close()
			return db.RollbackLast(d)
		},
	}
}

func init() {
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
}
