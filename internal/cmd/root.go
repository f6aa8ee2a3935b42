package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jra3/photosync/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "photosync",
	Short: "Mirror a remote photo library to a local directory",
	Long:  `photosync incrementally exports a remote photo library's collections and files to a local directory, tracking what's already on disk in a journal so repeated runs only transfer what changed.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default: ~/.config/photosync/config.yaml)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "debug mode (accepted; no command reads it)")
	rootCmd.PersistentFlags().String("export-root", "", "directory to mirror the remote library into (overrides config)")

	viper.SetEnvPrefix("PHOTOSYNC")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("export.root", rootCmd.PersistentFlags().Lookup("export-root"))
}

// loadConfig merges the on-disk YAML config (internal/config.Load) with
// any viper-bound flags/environment, giving flags the final say. A file
// named by --config is read through viper and contributes only its
// export.root value; every other field comes from config.Load.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if root := viper.GetString("export.root"); root != "" {
		cfg.Export.Root = root
	}
	if apiKey := os.Getenv("PHOTOSYNC_API_KEY"); apiKey != "" {
		cfg.APIKey = apiKey
	}
	return cfg, nil
}
