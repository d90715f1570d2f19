// Command roomhubctl runs maintenance tasks against a RoomHub database:
// creating indexes, seeding users and rebuilding the search index.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"

	mongoURI string
	mongoDB  string
	timeout  time.Duration
	verbose  bool
)

func main() {
	// A local .env is optional; real environment variables win.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "roomhubctl",
	Short:         "RoomHub maintenance commands",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&mongoURI, "mongo-uri", envOr("ROOMHUB_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	pf.StringVar(&mongoDB, "mongo-database", envOr("ROOMHUB_MONGO_DATABASE", "roomhub"), "MongoDB database name")
	pf.DurationVar(&timeout, "timeout", 2*time.Minute, "Overall deadline for the command")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")

	rootCmd.AddCommand(indexesCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(roomsCmd)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	return cfg.Build()
}

// withDB connects, runs fn and disconnects.
func withDB(cmd *cobra.Command, fn func(ctx context.Context, db *mongo.Database, logger *zap.Logger) error) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return fmt.Errorf("connect to mongo: %w", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}
	return fn(ctx, client.Database(mongoDB), logger)
}
