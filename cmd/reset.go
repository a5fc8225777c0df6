package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/jon4hz/symlinkarr/internal/database"
	"github.com/spf13/cobra"
)

var resetCmdFlags struct {
	Yes bool
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop and recreate all database tables",
	Long: `This command drops every table of the symlinkarr database and creates them again.
All indexed media, torrents and files are lost. Symlinks in the library are not touched
and are picked up again by the next library scan.`,
	Run: reset,
}

func init() {
	resetCmd.Flags().BoolVarP(&resetCmdFlags.Yes, "yes", "y", false, "Confirm the reset")

	rootCmd.AddCommand(resetCmd)
}

func reset(cmd *cobra.Command, _ []string) {
	if !resetCmdFlags.Yes {
		log.Fatal("refusing to reset the database without --yes")
	}

	cfg := loadConfig()

	db, err := database.New(cfg.Database.Path, false)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer db.Close() //nolint:errcheck

	log.Info("Resetting database...", "path", cfg.Database.Path)
	if err := db.Reset(cmd.Context()); err != nil {
		log.Fatalf("failed to reset database: %v", err)
	}
	log.Info("Successfully reset the database!")
}
