package cmd

import (
	"fmt"
	"os"

	"github.com/alimgiray/repolens/pkg/config"
	"github.com/alimgiray/repolens/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version info (set by ldflags)
	Version = "dev"

	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "repolens",
	Short: "GitHub repository analytics",
	Long: `Repolens fetches commits, pull requests, issues and comments of a GitHub
repository, scores their text quality with an LLM, measures the code in a
shallow clone and stores everything for reporting.

Example:
  repolens analyze https://github.com/octo/lens
  repolens stats octo/lens
  repolens export octo/lens --format xlsx --output lens.xlsx
  repolens serve --port 8080`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read config file: %w", err)
			}
		}

		loaded, err := config.LoadFrom(viper.GetViper())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		config.AppConfig = loaded
		logger.Init(cfg.Log.Level)
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (yaml)")
	flags.String("db-driver", "sqlite3", "database driver (sqlite3|pgx)")
	flags.String("db-path", "./repolens.db", "sqlite database path")
	flags.String("database-url", "", "postgres DSN for the pgx driver")
	flags.String("log-level", "info", "log level (debug|info|warn|error)")
	flags.Int("workers", 30, "concurrent workers per analysis batch")

	viper.BindPFlag("database.driver", flags.Lookup("db-driver"))
	viper.BindPFlag("database.path", flags.Lookup("db-path"))
	viper.BindPFlag("database.url", flags.Lookup("database-url"))
	viper.BindPFlag("log.level", flags.Lookup("log-level"))
	viper.BindPFlag("analysis.max_workers", flags.Lookup("workers"))
}
