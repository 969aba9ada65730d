// Package cmd implements the refmend CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/refmend/refmend"
	"github.com/refmend/refmend/internal/sources/gemini"
	"github.com/refmend/refmend/internal/sources/zotero"
	"github.com/refmend/refmend/pkg/logging"
	"github.com/refmend/refmend/pkg/schema"
)

var (
	configFile string
	verbose    bool
	quiet      bool

	// Version information set by main.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// Date is the build date.
	Date = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "refmend",
	Short: "Bibliographic record reconciliation",
	Long: `Refmend reconciles the records of a reference library: it finds
near-duplicate entries, reports missing fields per record type, proposes
enrichment values from an external lookup, and merges duplicate groups
into a single master record.

Fetched snapshots are cached locally, so scan and check also work
offline.`,
	SilenceUsage: true,
}

// Execute runs the root command with signal-aware context.
func Execute(version, commit, date string) {
	Version = version
	Commit = commit
	Date = date
	rootCmd.Version = version

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is $HOME/.refmend.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "warnings and errors only")
	rootCmd.PersistentFlags().Bool("refresh", false, "refetch from the record source, ignoring the cache")

	rootCmd.PersistentFlags().String("user-id", "", "record source user ID")
	rootCmd.PersistentFlags().String("cache", defaultCachePath(), "snapshot cache path")
	rootCmd.PersistentFlags().String("schemas", "", "YAML file overriding the built-in field schemas")

	for _, flag := range []string{"refresh", "user-id", "cache", "schemas"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("binding %s flag: %v", flag, err))
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".refmend")
	}

	// .env before viper env binding; .env.local overrides .env.
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Overload(envFile)
	}

	viper.SetEnvPrefix("refmend")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// API keys live outside the REFMEND_ prefix.
	_ = viper.BindEnv("zotero-api-key", "ZOTERO_API_KEY")
	_ = viper.BindEnv("gemini-api-key", "GEMINI_API_KEY")

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	configureLogging()
}

// configureLogging sets the global log level from flags and environment.
func configureLogging() {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	if quiet {
		level = zerolog.WarnLevel
	}
	if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
		if parsed, err := zerolog.ParseLevel(envLevel); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)
	logging.SetDefault(logging.Default().Level(level))
}

// newRefmend builds the configured Refmend instance for a command run.
func newRefmend(ctx context.Context, needEnricher bool) (refmend.Refmend, error) {
	client, err := zotero.NewClient(zotero.Config{
		UserID:  viper.GetString("user-id"),
		APIKey:  viper.GetString("zotero-api-key"),
		BaseURL: viper.GetString("base-url"),
	})
	if err != nil {
		return nil, err
	}

	schemas := schema.NewTable()
	if path := viper.GetString("schemas"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening schema file: %w", err)
		}
		schemas, err = schema.LoadTable(f)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
	}

	opts := []refmend.Option{
		refmend.WithLibrary(client),
		refmend.WithSchemaTable(schemas),
		refmend.WithCachePath(viper.GetString("cache")),
	}

	if needEnricher {
		enricher, err := gemini.NewEnricher(ctx, viper.GetString("gemini-api-key"),
			gemini.WithModel(viper.GetString("gemini-model")),
			gemini.WithSchemaTable(schemas))
		if err != nil {
			return nil, err
		}
		opts = append(opts, refmend.WithEnricher(enricher))
	}

	return refmend.New(opts...)
}

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".refmend-cache.db"
	}
	return home + "/.refmend-cache.db"
}
