package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	envFile string
)

var (
	version = "dev"
	logger  = zerolog.Nop()
	rootCmd = &cobra.Command{
		Use:   "creditctl",
		Short: "Credit risk assessment from period-indexed accounting data",
		Long: `creditctl reshapes balance sheet and income statement accounts, computes
the indicator library, classifies it against the rule tables and rolls it up
into a 0-100 credit score with a letter rating.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./creditctl.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("rules", "", "directory overriding the built-in rule tables")
	rootCmd.PersistentFlags().String("store", backendMemory, "history backend (memory, file, postgres)")
	rootCmd.PersistentFlags().String("store-dir", "", "directory for the file backend (default: .cache/assessments)")
	rootCmd.PersistentFlags().String("database-url", "", "Postgres connection string")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("rules.dir", rootCmd.PersistentFlags().Lookup("rules"))
	_ = viper.BindPFlag("store.backend", rootCmd.PersistentFlags().Lookup("store"))
	_ = viper.BindPFlag("store.dir", rootCmd.PersistentFlags().Lookup("store-dir"))
	_ = viper.BindPFlag("database.url", rootCmd.PersistentFlags().Lookup("database-url"))

	rootCmd.AddCommand(assessCmd())
	rootCmd.AddCommand(rulesCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info().Msg("received interrupt signal, shutting down")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("creditctl")
		viper.SetConfigType("yaml")
	}

	// CREDIT_DATABASE_URL, CREDIT_STORE_BACKEND, ...
	viper.SetEnvPrefix("CREDIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	return setupLogging(os.Stderr)
}

func setupLogging(w io.Writer) error {
	level, err := zerolog.ParseLevel(viper.GetString("logging.level"))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	switch format := viper.GetString("logging.format"); format {
	case "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	case "json":
	default:
		return fmt.Errorf("invalid log format: %s", format)
	}

	logger = zerolog.New(w).Level(level).With().Timestamp().Logger()
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "creditctl", version)
		},
	}
}
