package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/cohort-admin-api/internal/app"
	"github.com/noah-isme/cohort-admin-api/internal/models"
	"github.com/noah-isme/cohort-admin-api/pkg/config"
	"github.com/noah-isme/cohort-admin-api/pkg/database"
)

var (
	version = "dev"

	actorFlag  int64
	jsonFlag   bool
	pageFlag   int
	limitFlag  int
	searchFlag string
	emptyFlag  int
	modeFlag   string
)

// cli holds the connections opened by the root command for its subcommands.
type cli struct {
	db       *sqlx.DB
	services *app.Services
}

var state cli

var rootCmd = &cobra.Command{
	Use:   "cohortctl",
	Short: "Read-only cohort reports against the platform database",
	Long: `cohortctl prints cohort listings, rosters, enrolled courses and counts.

It connects with the same DB_* environment variables as the API server and
runs as a site administrator. It never modifies data.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		db, err := database.NewPostgres(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		state.db = db
		state.services = app.NewServices(cfg, db, nil, nil, zap.NewNop())
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if state.db != nil {
			return state.db.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Int64Var(&actorFlag, "actor", 2, "User id recorded as the caller")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Print JSON instead of a table")

	listCmd.Flags().StringVar(&searchFlag, "search", "", "Match name, cohort ID or description")
	listCmd.Flags().IntVar(&emptyFlag, "empty", 0, "0 all, 1 without members, 2 without active members")
	for _, cmd := range []*cobra.Command{listCmd, membersCmd, coursesCmd} {
		cmd.Flags().IntVar(&pageFlag, "page", 0, "Zero based page")
		cmd.Flags().IntVar(&limitFlag, "limit", 25, "Page size")
	}
	countsCmd.Flags().StringVar(&modeFlag, "mode", "all", "Member count mode: all, active or suspended")

	rootCmd.AddCommand(listCmd, membersCmd, coursesCmd, countsCmd)
}

func operator() *models.JWTClaims {
	return &models.JWTClaims{UserID: actorFlag, Role: models.RoleSiteAdmin, FullName: "cohortctl"}
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
