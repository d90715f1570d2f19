package main

import (
	"context"
	"errors"
	"fmt"

	userstore "github.com/dalemusser/roomhub/internal/app/store/users"
	"github.com/dalemusser/roomhub/internal/domain/models"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	Long: `Create a user directly in the database.

Examples:
  roomhubctl user create --name "Ada Lovelace" --email ada@example.com --password secret
  roomhubctl user create --name Grace --email grace@example.com --password cobol --specialization "Software Engineer"`,
	RunE: runUserCreate,
}

func init() {
	f := userCreateCmd.Flags()
	f.String("name", "", "Display name (required)")
	f.String("email", "", "Email address (required)")
	f.String("password", "", "Password (required)")
	f.String("specialization", "", "Specialization (default Guest)")
	_ = userCreateCmd.MarkFlagRequired("name")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd)
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	sp, _ := cmd.Flags().GetString("specialization")

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return withDB(cmd, func(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
		u, err := userstore.New(db).Create(ctx, models.User{
			Name:           name,
			Email:          email,
			PasswordHash:   string(hash),
			Specialization: sp,
		})
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			return fmt.Errorf("a user with email %s already exists", email)
		}
		if err != nil {
			return err
		}
		logger.Debug("user created", zap.String("user_id", u.ID.Hex()))
		fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", u.ID.Hex(), u.Email)
		return nil
	})
}
