package main

import (
	"context"
	"fmt"

	"github.com/dalemusser/roomhub/internal/app/system/indexes"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create or update the collection indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd, func(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
			if err := indexes.EnsureAll(ctx, db); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexes ensured on %s\n", db.Name())
			return nil
		})
	},
}
