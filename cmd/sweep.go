/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/yelpcamp/apiserver/config"
	"github.com/yelpcamp/apiserver/internal/db"
	"github.com/yelpcamp/apiserver/internal/server"
	"github.com/yelpcamp/apiserver/internal/services"
	"github.com/yelpcamp/apiserver/internal/session"
	"github.com/yelpcamp/apiserver/internal/store"
)

var orphanGrace time.Duration

// sweepCmd removes expired sessions and reviews no campground lists.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove expired sessions and orphaned reviews",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.LoadConfig()
		logger := newLogger()

		dbConn, err := db.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer dbConn.Close()

		sessionStore, closeSessions, err := server.OpenSessionStore(ctx, cfg, dbConn)
		if err != nil {
			return fmt.Errorf("open session store: %w", err)
		}
		defer closeSessions()

		expired, err := session.NewSweeper(sessionStore, cfg.Session.SweepInterval, logger).SweepOnce(ctx)
		if err != nil {
			return fmt.Errorf("sweep sessions: %w", err)
		}

		reviews := services.NewReviewService(store.NewReviewRepository(dbConn), store.NewCampgroundRepository(dbConn), logger)
		orphans, err := reviews.DeleteOrphans(ctx, orphanGrace)
		if err != nil {
			return fmt.Errorf("sweep reviews: %w", err)
		}

		logger.Info("sweep finished", "expired_sessions", expired, "orphaned_reviews", orphans)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().DurationVar(&orphanGrace, "orphan-grace", time.Hour, "minimum age of an unreferenced review before it is removed")
}
