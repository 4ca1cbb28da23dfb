package cli

import (
	"bufio"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/workbench-cli/internal/core/domain"
)

// Chat rendering styles.
var (
	promptStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	assistantStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	outcomeOKStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	outcomeErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	suggestionStyle = lipgloss.NewStyle().Faint(true).Italic(true)
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive conversation with the workbench agent.

The agent can create tasks and notes, record expenses, search your notes,
check the weather and more. Type 'exit' or 'quit' to leave.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if err := ensureAgent(); err != nil {
		return err
	}

	cmd.Println("Workbench chat. Type 'exit' to leave.")
	cmd.Println()

	conversation := domain.NewConversation(domain.HistoryWindow)
	scanner := bufio.NewScanner(os.Stdin)

	for {
		cmd.Print(promptStyle.Render("you> ") + " ")
		if !scanner.Scan() {
			cmd.Println()
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			return nil
		}

		response := agentService.Run(cmd.Context(), owner, input, conversation.Turns())
		printResponse(cmd, response)

		now := time.Now()
		conversation.Append(domain.Utterance{Role: domain.RoleUser, Content: input, Timestamp: now})
		conversation.Append(domain.Utterance{Role: domain.RoleAssistant, Content: response.Message, Timestamp: response.Timestamp})
	}
}

// printResponse renders one agent turn: tool outcomes, the reply, and
// follow-up suggestions.
func printResponse(cmd *cobra.Command, response domain.AgentResponse) {
	cmd.Println()
	for _, outcome := range response.Outcomes {
		if outcome.Success {
			cmd.Println(outcomeOKStyle.Render("  ✓ " + string(outcome.Tool) + ": " + outcome.Message))
		} else {
			cmd.Println(outcomeErrStyle.Render("  ✗ " + string(outcome.Tool) + ": " + outcome.Message))
		}
	}
	if len(response.Outcomes) > 0 {
		cmd.Println()
	}

	cmd.Println(assistantStyle.Render(response.Message))

	if len(response.Suggestions) > 0 {
		cmd.Println()
		cmd.Println(suggestionStyle.Render("Try: " + strings.Join(response.Suggestions, " · ")))
	}
	cmd.Println()
}
