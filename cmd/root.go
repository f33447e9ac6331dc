package cmd

import (
	"errors"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ruslanmv/jobcraft/internal/config"
	"github.com/ruslanmv/jobcraft/internal/llm"
	"github.com/ruslanmv/jobcraft/internal/logger"
	"github.com/ruslanmv/jobcraft/internal/settings"
)

const (
	app = "jobcraft"
)

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobcraft is a local job-application assistant: it discovers postings, drafts materials via a pluggable LLM backend and tracks your applications",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	config.SetDefaults(viper.GetViper())
	if err := config.BindEnv(viper.GetViper()); err != nil {
		log.Fatalf("binding environment variables: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobcraft.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional unless one was named explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func newLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

// coreServices wires the pieces every command needs: static settings, the
// runtime settings store, the LLM router and the model catalog.
func coreServices(l *zap.Logger) (*config.Settings, *settings.Store, *llm.Router, *llm.Catalog) {
	static, err := config.Load(viper.GetViper())
	if err != nil {
		l.Fatal("loading settings", zap.Error(err))
	}

	store := settings.NewStore(static, l)
	router := llm.NewRouter(store, l)
	catalog := llm.NewCatalog(store, l)
	return static, store, router, catalog
}
