package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a running \"export --watch\" process for this export root",
	RunE:  runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

func pidFilePath(exportRoot string) string {
	return filepath.Join(exportRoot, ".photosync-watch.pid")
}

func writePIDFile(exportRoot string) error {
	return os.WriteFile(pidFilePath(exportRoot), []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func removePIDFile(exportRoot string) {
	_ = os.Remove(pidFilePath(exportRoot))
}

func runStop(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Export.Root == "" {
		return fmt.Errorf("no export root configured: pass --export-root or set export.root in config.yaml")
	}

	data, err := os.ReadFile(pidFilePath(cfg.Export.Root))
	if err != nil {
		return fmt.Errorf("no watch process recorded for %s: %w", cfg.Export.Root, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return fmt.Errorf("malformed pid file: %w", err)
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal process %d: %w", pid, err)
	}
	fmt.Printf("sent stop signal to pid %d\n", pid)
	return nil
}
