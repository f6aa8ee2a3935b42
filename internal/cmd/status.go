package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jra3/photosync/internal/fsgateway"
	"github.com/jra3/photosync/internal/journal"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the export root's current stage, entry counts and last attempt",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Export.Root == "" {
		return fmt.Errorf("no export root configured: pass --export-root or set export.root in config.yaml")
	}

	gw := fsgateway.New()
	exists, err := gw.Exists(cfg.Export.Root)
	if err != nil {
		return fmt.Errorf("check export root: %w", err)
	}
	if !exists {
		fmt.Printf("export root %s does not exist\n", cfg.Export.Root)
		return nil
	}

	j, err := journal.Open(gw, cfg.Export.Root)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	rec := j.Snapshot()
	fmt.Printf("export root: %s\n", cfg.Export.Root)
	fmt.Printf("stage: %s\n", rec.Stage)
	fmt.Printf("files tracked: %d\n", len(rec.FileExportNames))
	fmt.Printf("collections tracked: %d\n", len(rec.CollectionExportNames))
	if rec.LastAttemptTimestamp != nil {
		fmt.Printf("last attempt: epoch_ms=%d\n", *rec.LastAttemptTimestamp)
	}
	return nil
}
