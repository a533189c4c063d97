package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aeg-helpline/server/internal/agent/model"
)

var (
	chatConversationID string
	chatMemory         bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the help line in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appCfg
		if chatMemory || cfg.Redis.URL == "" {
			cfg.Storage.Backend = model.StorageMemory
		}
		a, err := buildApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.close()

		id := chatConversationID
		if id == "" {
			id = uuid.NewString()
		}
		return runChat(cmd.Context(), a.runner, id, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatConversationID, "conversation", "", "conversation id to resume (default: a new one)")
	chatCmd.Flags().BoolVar(&chatMemory, "memory", false, "keep the conversation in memory instead of Redis")
}

type turnInvoker interface {
	Invoke(ctx context.Context, in model.TurnInput) (model.TurnOutput, error)
}

// runChat starts the conversation with an empty message, then sends one
// turn per input line until EOF or "/exit".
func runChat(ctx context.Context, runner turnInvoker, conversationID string, in io.Reader, out io.Writer) error {
	send := func(text string) error {
		res, err := runner.Invoke(ctx, model.TurnInput{ConversationID: conversationID, Text: text})
		if err != nil {
			return err
		}
		for _, a := range res.Activities {
			fmt.Fprintf(out, "Bot: %s\n", a.Text)
			if len(a.SuggestedActions) > 0 {
				fmt.Fprintf(out, "     [%s]\n", strings.Join(a.SuggestedActions, "] ["))
			}
		}
		return nil
	}

	fmt.Fprintf(out, "Conversation %s (type /exit to quit)\n", conversationID)
	if err := send(""); err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/exit" {
			return nil
		}
		if err := send(line); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
