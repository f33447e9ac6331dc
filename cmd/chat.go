package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send one message to the active (or named) LLM backend",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		chat(cmd, strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("provider", "p", "", "backend to use instead of the active provider")
	chatCmd.Flags().StringP("system", "s", "", "system instruction for the request")
}

func chat(cmd *cobra.Command, message string) {
	logger := newLogger()

	_, _, router, _ := coreServices(logger)

	provider := cmd.Flag("provider").Value.String()
	system := cmd.Flag("system").Value.String()

	reply, err := router.Chat(context.Background(), provider, system, message)
	if err != nil {
		logger.Fatal("chat failed", zap.Error(err))
	}

	fmt.Println(reply)
}
