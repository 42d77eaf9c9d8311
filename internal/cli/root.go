package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/otpraat/internal/model"
)

var (
	cfgFile   string
	verbose   bool
	overwrite string
	logFormat string
	noCache   bool
)

// newFs returns the filesystem commands read from and write to
var newFs = afero.NewOsFs

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "otpraat",
	Short: "otpraat - convert OT-Soft tableaux to Praat grammars",
	Long: `otpraat converts a tab-delimited OT-Soft / OT-Help tableau file into the two
files Praat's Gradual Learning Algorithm needs:

  <name>.OTGrammar          constraints and one tableau per input
  <name>.PairDistribution   input/candidate pairs with their frequencies

The input layout is described in the OTHelp manual, section 3:
https://people.umass.edu/othelp/OTHelp.pdf`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "otpraat v0.3.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.otpraat/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&overwrite, "overwrite", model.OverwritePrompt, "existing output files: prompt, always or never")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "disable the parse cache")

	// Bind flags to viper
	_ = viper.BindPFlag("log.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("output.overwrite", rootCmd.PersistentFlags().Lookup("overwrite"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	registerDefaults(model.DefaultConfig())

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.otpraat")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match OTPRAAT_*, e.g. OTPRAAT_OUTPUT_OVERWRITE
	viper.SetEnvPrefix("OTPRAAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// registerDefaults makes every config key known to viper so env vars can override it
func registerDefaults(cfg *model.Config) {
	viper.SetDefault("input.extensions", cfg.Input.Extensions)
	viper.SetDefault("output.grammar_extension", cfg.Output.GrammarExtension)
	viper.SetDefault("output.pair_extension", cfg.Output.PairExtension)
	viper.SetDefault("output.overwrite", cfg.Output.Overwrite)
	viper.SetDefault("grammar.ranking", cfg.Grammar.Ranking)
	viper.SetDefault("grammar.disharmony", cfg.Grammar.Disharmony)
	viper.SetDefault("grammar.plasticity", cfg.Grammar.Plasticity)
	viper.SetDefault("batch.workers", cfg.Batch.Workers)
	viper.SetDefault("cache.enabled", cfg.Cache.Enabled)
	viper.SetDefault("cache.ttl", cfg.Cache.TTL)
	viper.SetDefault("log.verbose", cfg.Log.Verbose)
	viper.SetDefault("log.format", cfg.Log.Format)
}

// loadConfig merges defaults, config file, env vars and flags, then validates the result
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
