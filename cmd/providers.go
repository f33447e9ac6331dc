package cmd

import (
	"context"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ruslanmv/jobcraft/internal/llm"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Inspect and manage the LLM backends",
}

var providersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the backends with their configuration state",
	Run: func(_ *cobra.Command, _ []string) {
		providersList()
	},
}

var providersUseCmd = &cobra.Command{
	Use:   "use [provider]",
	Short: "Set the active backend, interactively when no name is given",
	Args:  cobra.MaximumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		providersUse(args)
	},
}

var providersModelsCmd = &cobra.Command{
	Use:   "models [provider]",
	Short: "List the models a backend offers",
	Args:  cobra.MaximumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		providersModels(args)
	},
}

var providersTestCmd = &cobra.Command{
	Use:   "test [provider]",
	Short: "Test connectivity to a backend",
	Args:  cobra.MaximumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		providersTest(args)
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
	providersCmd.AddCommand(providersListCmd)
	providersCmd.AddCommand(providersUseCmd)
	providersCmd.AddCommand(providersModelsCmd)
	providersCmd.AddCommand(providersTestCmd)
}

func providersList() {
	logger := newLogger()
	_, store, _, _ := coreServices(logger)

	active := store.ActiveProvider()
	configs := store.AllConfigs()

	for _, id := range llm.Identities() {
		marker := " "
		if id == active {
			marker = "*"
		}
		state := "not configured"
		if llm.IsConfigured(id, configs[id]) {
			state = "configured"
		}
		fmt.Printf("%s %-22s %-15s model=%s\n", marker, id, state, configs[id].Model)
	}
}

func providersUse(args []string) {
	logger := newLogger()
	_, store, _, _ := coreServices(logger)

	var name string
	if len(args) == 1 {
		name = args[0]
	} else {
		ids := llm.Identities()
		items := make([]string, 0, len(ids))
		for _, id := range ids {
			items = append(items, string(id))
		}

		prompt := promptui.Select{
			Label: "Choose the active provider",
			Items: items,
		}
		_, selected, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		name = selected
	}

	if err := store.SetActiveProvider(name); err != nil {
		logger.Fatal("setting active provider", zap.Error(err))
	}

	fmt.Printf("active provider set to %s\n", name)
}

func providersModels(args []string) {
	logger := newLogger()
	_, store, _, catalog := coreServices(logger)

	id := resolveProviderArg(args, store, logger)

	models, err := catalog.ListModels(context.Background(), id)
	if err != nil {
		logger.Fatal("listing models", zap.Error(err))
	}

	for _, m := range models {
		fmt.Println(m)
	}
}

func providersTest(args []string) {
	logger := newLogger()
	_, store, _, catalog := coreServices(logger)

	id := resolveProviderArg(args, store, logger)

	models, err := catalog.ListModels(context.Background(), id)
	if err != nil {
		logger.Fatal("connection test failed",
			zap.String("provider", string(id)),
			zap.Error(err),
		)
	}

	fmt.Printf("successfully connected to %s, found %d models\n", id, len(models))
}

func resolveProviderArg(args []string, source llm.ConfigSource, logger *zap.Logger) llm.Identity {
	if len(args) == 0 {
		return source.ActiveProvider()
	}

	id, err := llm.ParseIdentity(args[0])
	if err != nil {
		logger.Fatal("invalid provider", zap.Error(err))
	}
	return id
}
