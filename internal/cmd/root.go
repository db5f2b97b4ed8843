package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/Iron-Ham/roadmap/internal/config"
	"github.com/Iron-Ham/roadmap/internal/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "roadmap",
	Short: "Read and update objective roadmaps stored in issues",
	Long: `Roadmap reads the step table or YAML block embedded in an objective
issue, resolves the dependency graph between steps, and records progress
back into the issue with surgical edits.

Documents are addressed as owner/repo#N, #N (with store.repo set), an issue
URL, an issue comment URL, or a local markdown file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Errors are printed to stderr unless the
// command already reported them.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errReported) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/roadmap/config.yaml)")
	rootCmd.PersistentFlags().String("backend", "", "document store: github or file")
	rootCmd.PersistentFlags().String("repo", "", "default owner/repo for #N references")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("store.backend", rootCmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("store.repo", rootCmd.PersistentFlags().Lookup("repo"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/roadmap")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("ROADMAP")
	// Replace dots with underscores for nested keys in env vars
	// e.g., ROADMAP_STORE_REPO for store.repo
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// boundDefault returns the flag value when the flag was given, otherwise
// the configured value.
func boundDefault[T any](cmd *cobra.Command, name string, configured T, get func(string) (T, error)) T {
	if !cmd.Flags().Changed(name) {
		return configured
	}
	v, err := get(name)
	if err != nil {
		return configured
	}
	return v
}
