package main

import (
	"context"
	"errors"
	"fmt"

	roomstore "github.com/dalemusser/roomhub/internal/app/store/rooms"
	"github.com/dalemusser/roomhub/internal/app/system/search"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "Manage rooms",
}

var roomsReindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Push every room to the Meilisearch index",
	RunE:  runRoomsReindex,
}

func init() {
	f := roomsReindexCmd.Flags()
	f.String("meili-url", envOr("ROOMHUB_MEILI_URL", ""), "Meilisearch URL")
	f.String("meili-api-key", envOr("ROOMHUB_MEILI_API_KEY", ""), "Meilisearch API key")
	f.Int("batch-size", 500, "Rooms per index request")

	roomsCmd.AddCommand(roomsReindexCmd)
}

func runRoomsReindex(cmd *cobra.Command, args []string) error {
	url, _ := cmd.Flags().GetString("meili-url")
	key, _ := cmd.Flags().GetString("meili-api-key")
	batch, _ := cmd.Flags().GetInt("batch-size")
	if url == "" {
		return errors.New("--meili-url (or ROOMHUB_MEILI_URL) is required")
	}

	return withDB(cmd, func(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
		idx := search.NewMeili(url, key, logger)
		if !idx.Healthy(ctx) {
			return fmt.Errorf("meilisearch at %s is unreachable", url)
		}
		n, err := search.NewService(idx, roomstore.New(db), logger).Reindex(ctx, batch)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "indexed %d rooms\n", n)
		return nil
	})
}
