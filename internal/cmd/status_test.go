package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jra3/photosync/internal/fsgateway"
	"github.com/jra3/photosync/internal/journal"
	"github.com/jra3/photosync/internal/model"
)

func newStatusTestCommand(t *testing.T, root string) *cobra.Command {
	t.Helper()
	viper.Reset()
	viper.SetEnvPrefix("PHOTOSYNC")
	viper.AutomaticEnv()

	cmd := &cobra.Command{Use: "status"}
	cmd.Flags().StringP("config", "c", "", "")
	cmd.Flags().String("export-root", "", "")
	_ = viper.BindPFlag("export.root", cmd.Flags().Lookup("export-root"))
	if err := cmd.Flags().Set("export-root", root); err != nil {
		t.Fatalf("Set(export-root): %v", err)
	}
	return cmd
}

func TestRunStatusMissingExportRootErrors(t *testing.T) {
	cmd := newStatusTestCommand(t, "")
	if err := runStatus(cmd, nil); err == nil {
		t.Error("runStatus() should error with no export root configured")
	}
}

func TestRunStatusNonexistentRootPrintsAndReturnsNil(t *testing.T) {
	root := filepath.Join(t.TempDir(), "does-not-exist")
	cmd := newStatusTestCommand(t, root)

	if err := runStatus(cmd, nil); err != nil {
		t.Errorf("runStatus() error = %v, want nil for a missing export root", err)
	}
}

func TestRunStatusReportsJournalState(t *testing.T) {
	root := t.TempDir()
	cmd := newStatusTestCommand(t, root)

	gw := fsgateway.New()
	j, err := journal.Open(gw, root)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	if err := j.SetCollectionName(context.Background(), 1, "Vacation"); err != nil {
		t.Fatalf("SetCollectionName: %v", err)
	}
	if err := j.SetFileName(context.Background(), "10_1_100", model.ExportName{Kind: model.ExportNamePlain, Name: "beach.jpg"}); err != nil {
		t.Fatalf("SetFileName: %v", err)
	}
	j.Close()

	if err := runStatus(cmd, nil); err != nil {
		t.Errorf("runStatus() error = %v, want nil", err)
	}
}
