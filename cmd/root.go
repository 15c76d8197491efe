package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/dashboard-fill/internal/config"
)

var (
	cfg        *config.Config
	workDir    string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "dashboard-fill",
	Short: "Fill a simulation dashboard from per-round financial summaries",
	Long:  "Scans the per-firm financial sheets of each round file for metric/value pairs and writes them into the matching year sheet of the dashboard template.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath, workDir, config.ExecutableDir())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&workDir, "dir", ".", "directory holding the round files, template and config")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "explicit config file path (default: config.json in --dir or next to the binary)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
