package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/knowbase/internal/progress"
	"github.com/ziadkadry99/knowbase/internal/router"
)

var chatID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Opens a conversational session against the knowledge base. Questions
are answered from your documents, stated facts are recorded, and the
full conversation is persisted. Exit with "exit" or Ctrl-D.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(progress.SilentReporter{})
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()

		id := chatID
		if id == "" {
			id, err = a.chats.DefaultChatID(ctx)
			if err != nil {
				return err
			}
		}
		if id == "" {
			c, err := a.chats.CreateChat(ctx, "")
			if err != nil {
				return err
			}
			id = c.ID
		}

		fmt.Printf("Chat %s. Ask a question or state a fact; type \"exit\" to quit.\n", id)

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				fmt.Println()
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "exit" || line == "quit" {
				return nil
			}

			reply, err := a.router.Handle(ctx, id, line, nil)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				continue
			}

			fmt.Println(reply.Content)
			if reply.Answer != nil && verbose {
				fmt.Printf("\n[confidence: %s", reply.Answer.Confidence)
				if len(reply.Answer.Sources) > 0 {
					fmt.Printf(", sources: %s", strings.Join(reply.Answer.Sources, ", "))
				}
				fmt.Println("]")
			}
			if reply.Intent == router.IntentInformationRequest && reply.Answer != nil && len(reply.Answer.MissingInfo) > 0 && !verbose {
				fmt.Printf("(confidence: %s)\n", reply.Answer.Confidence)
			}
			fmt.Println()
		}
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatID, "chat", "", "chat id to resume (defaults to the oldest chat)")
	rootCmd.AddCommand(chatCmd)
}
