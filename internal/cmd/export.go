package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Run one reconciliation-and-export pass",
	Long:  `Diffs the remote library against the local export root's journal and materializes whatever changed: new files downloaded, removed files trashed, renamed/removed collections mirrored.`,
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().Bool("watch", false, "keep running, exporting again whenever the remote library changes")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Export.Root == "" {
		return fmt.Errorf("no export root configured: pass --export-root or set export.root in config.yaml")
	}

	eng, settings, closeFn := buildEngine(cfg)
	defer closeFn()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nstopping...")
		eng.Scheduler.Stop()
		cancel()
	}()

	eng.Scheduler.ResumeOnStartup(ctx)

	counters, err := eng.Scheduler.Schedule(ctx)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	fmt.Printf("export complete: %d succeeded, %d failed\n", counters.Success, counters.Failed)

	watch, _ := cmd.Flags().GetBool("watch")
	if watch {
		settings.SetContinuousExport(true)
		eng.Scheduler.EnableContinuousExport(ctx)
		defer eng.Scheduler.DisableContinuousExport()
		if err := writePIDFile(cfg.Export.Root); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not write pid file: %v\n", err)
		} else {
			defer removePIDFile(cfg.Export.Root)
		}
		fmt.Println("watching for remote changes; press Ctrl+C to stop, or run \"photosync stop\" from elsewhere")
		<-ctx.Done()
	}
	return nil
}
