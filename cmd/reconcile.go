/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yelpcamp/apiserver/config"
	"github.com/yelpcamp/apiserver/internal/db"
	"github.com/yelpcamp/apiserver/internal/mq"
	"github.com/yelpcamp/apiserver/internal/services"
	"github.com/yelpcamp/apiserver/internal/store"
	"github.com/yelpcamp/apiserver/types"
)

// reconcileCmd replays published campground deletions against the review
// table.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Consume campground deletion events and finish their review cascades",
	Long: `Consumes campground.deleted events from the configured broker
(MQ_BACKEND=rabbitmq or pubsub) and deletes the reviews each event lists.
Replaying an event is harmless.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.LoadConfig()
		logger := newLogger()

		broker, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if broker == nil {
			return errors.New("reconcile needs MQ_BACKEND to be set")
		}
		defer broker.Close()

		dbConn, err := db.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer dbConn.Close()

		cascade := services.NewReviewCascade(store.NewReviewRepository(dbConn))
		logger.Info("reconciling", "channel", types.CampgroundDeletedChannel)

		err = broker.Subscribe(ctx, types.CampgroundDeletedChannel, func(ctx context.Context, msg mq.Message) error {
			if err := cascade.Reconcile(ctx, msg.Data); err != nil {
				if errors.Is(err, services.ErrValidation) {
					logger.Warn("dropping malformed deletion event", "message_id", msg.ID, "error", err)
					return nil
				}
				logger.Error("reconcile failed", "message_id", msg.ID, "error", err)
				return err
			}
			logger.Debug("reconciled", "message_id", msg.ID, "campground_id", msg.Attributes["campground_id"])
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
