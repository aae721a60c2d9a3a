package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/new-xmon-df/pollinations-go/pkg/providers"
	"github.com/new-xmon-df/pollinations-go/pkg/session"
)

var (
	chatModel   string
	chatSystem  string
	chatStream  bool
	chatSession string
	chatClear   bool
)

var chatCmd = &cobra.Command{
	Use:   "chat [message...]",
	Short: "Send a message to a chat model",
	Long:  "Send a message to a chat model.\nWith --session, earlier turns of the named session are sent along and the new turns are saved.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var sessions *session.Manager
		var sess *session.Session
		if chatSession != "" {
			sessions = session.NewManager(expandPath(cli.cfg.SessionsDir))
			if chatClear {
				if err := sessions.Clear(chatSession); err != nil {
					return err
				}
				if len(args) == 0 {
					fmt.Printf("Cleared session %s\n", chatSession)
					return nil
				}
			}
			var err error
			if sess, err = sessions.GetOrCreate(chatSession); err != nil {
				return err
			}
		}
		if len(args) == 0 {
			return cmd.Help()
		}

		p, err := providers.NewProvider(cmd.Context(), cli.cfg, cli.store, cli.resolver)
		if err != nil {
			return err
		}

		prompt := strings.Join(args, " ")
		var messages []providers.Message
		if chatSystem != "" {
			messages = append(messages, providers.Message{Role: providers.RoleSystem, Content: chatSystem})
		}
		if sess != nil {
			messages = append(messages, sess.History(cli.cfg.Chat.HistoryLimit)...)
		}
		messages = append(messages, providers.Message{Role: providers.RoleUser, Content: prompt})

		answer, err := chat(cmd, p, messages)
		if err != nil {
			return err
		}

		if sess != nil {
			model := chatModel
			if model == "" {
				model = p.GetDefaultModel()
			}
			sess.Add(providers.RoleUser, prompt, "")
			sess.Add(providers.RoleAssistant, answer, model)
			return sessions.Save(sess)
		}
		return nil
	},
}

// chat prints the answer, streaming it when --stream is set, and returns it.
func chat(cmd *cobra.Command, p providers.LLMProvider, messages []providers.Message) (string, error) {
	if !chatStream {
		resp, err := p.Chat(cmd.Context(), messages, chatModel)
		if err != nil {
			return "", err
		}
		fmt.Println(resp.Content)
		return resp.Content, nil
	}

	ch, err := p.Stream(cmd.Context(), messages, chatModel)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for chunk := range ch {
		if chunk.Error != nil {
			fmt.Println()
			return "", chunk.Error
		}
		sb.WriteString(chunk.Content)
		fmt.Print(chunk.Content)
	}
	fmt.Println()
	return sb.String(), nil
}

func init() {
	chatCmd.Flags().StringVarP(&chatModel, "model", "m", "", "chat model (default from config)")
	chatCmd.Flags().StringVarP(&chatSystem, "system", "s", "", "system prompt")
	chatCmd.Flags().BoolVar(&chatStream, "stream", false, "stream the answer as it is generated")
	chatCmd.Flags().StringVar(&chatSession, "session", "", "keep the conversation in this named session")
	chatCmd.Flags().BoolVar(&chatClear, "clear", false, "clear the session before sending")
}
