package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/clauseguard/internal/model"
)

const version = "0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "clauseguard",
	Short: "ClauseGuard - clause extraction and risk assessment for contracts",
	Long: `ClauseGuard reads a contract, splits it into clauses, classifies each
clause, extracts parties, dates, amounts, durations and jurisdictions, and
scores every clause against a versioned rule catalog.

Every score comes with the rules that produced it. An optional LLM can
restate the findings in plain language; it never changes a score.

ClauseGuard is a reading aid, not legal advice.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(verbose)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and build information for ClauseGuard.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("clauseguard v%s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.clauseguard/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads .env, the config file and CLAUSEGUARD_* variables
func initConfig() {
	// .env is optional
	_ = godotenv.Load()

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
		viper.AddConfigPath(home + "/.clauseguard")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	bindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// configKeys lists every config key that can come from the environment,
// e.g. engine.workers from CLAUSEGUARD_ENGINE_WORKERS
var configKeys = []string{
	"engine.workers", "engine.min_structural_markers", "engine.tagger_url",
	"engine.tagger_timeout", "engine.max_findings", "engine.default_language",
	"rules.path",
	"cache.enabled", "cache.dir", "cache.memory_ttl", "cache.disk_ttl",
	"llm.provider", "llm.model", "llm.api_key", "llm.base_url", "llm.timeout",
	"llm.max_tokens", "llm.requests_per_second", "llm.burst", "llm.strict_references",
	"llm.http_proxy", "llm.https_proxy", "llm.no_proxy",
	"audit.enabled", "audit.driver", "audit.path",
	"output.verbose", "output.include_footer",
	"server.addr", "server.read_timeout", "server.write_timeout", "server.max_body_bytes",
	"fetch.timeout", "fetch.user_agent", "fetch.max_bytes",
	"fetch.http_proxy", "fetch.https_proxy", "fetch.no_proxy", "fetch.respect_robots",
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("CLAUSEGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}
}

// loadConfig merges defaults, the config file and the environment
func loadConfig() (*model.Config, error) {
	return configFrom(viper.GetViper())
}

func configFrom(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyProviderEnv(cfg)
	return cfg, nil
}

// applyProviderEnv fills provider credentials from the providers' own
// conventional variables when the config leaves them empty
func applyProviderEnv(cfg *model.Config) {
	switch cfg.LLM.Provider {
	case "openai":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "anthropic", "claude":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	case "ollama":
		if cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
	}
}

// setupLogging installs the default slog logger on stderr
func setupLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
