package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Ask the agent a single question",
	Long: `Send one message to the workbench agent and print the reply.

Examples:
  workbench ask "remind me to buy milk tomorrow"
  workbench ask "how much did I spend on food this month?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := ensureAgent(); err != nil {
		return err
	}
	if agentService == nil {
		return errNotWired
	}

	message := strings.Join(args, " ")
	response := agentService.Run(cmd.Context(), owner, message, nil)
	printResponse(cmd, response)
	return nil
}
