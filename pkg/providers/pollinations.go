package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	log "github.com/sirupsen/logrus"

	"github.com/new-xmon-df/pollinations-go/pkg/apierrors"
	"github.com/new-xmon-df/pollinations-go/pkg/catalog"
)

const (
	DefaultChatModel = "openai"
	DefaultTimeout   = 60 * time.Second
)

// ChatOptions are the chat model sub-node settings.
type ChatOptions struct {
	Model            string
	Temperature      float64
	MaxTokens        int // 0 leaves the limit to the model
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
	Timeout          time.Duration
}

// DefaultChatOptions returns the sub-node defaults.
func DefaultChatOptions() ChatOptions {
	return ChatOptions{
		Model:       DefaultChatModel,
		Temperature: 1,
		TopP:        1,
		Timeout:     DefaultTimeout,
	}
}

// ChatProvider talks to the OpenAI-compatible endpoint of Pollinations.
type ChatProvider struct {
	client  openai.Client
	opts    ChatOptions
	catalog catalog.ModelCatalogResolver
}

var _ LLMProvider = (*ChatProvider)(nil)

// NewChatProvider creates a provider for apiBase. The /v1 suffix is added
// here. resolver may be nil when model listing is not needed.
func NewChatProvider(apiBase, apiKey string, opts ChatOptions, resolver catalog.ModelCatalogResolver, extra ...option.RequestOption) *ChatProvider {
	if opts.Model == "" {
		opts.Model = DefaultChatModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	reqOpts := []option.RequestOption{
		option.WithBaseURL(strings.TrimRight(apiBase, "/") + "/v1"),
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(opts.Timeout),
		option.WithMaxRetries(0),
	}
	reqOpts = append(reqOpts, extra...)

	return &ChatProvider{
		client:  openai.NewClient(reqOpts...),
		opts:    opts,
		catalog: resolver,
	}
}

func (p *ChatProvider) GetDefaultModel() string {
	return p.opts.Model
}

// ChatModels lists the selectable chat models.
func (p *ChatProvider) ChatModels(ctx context.Context) []catalog.Option {
	if p.catalog == nil {
		return nil
	}
	return p.catalog.ChatModels(ctx)
}

// Chat sends a chat completion request.
func (p *ChatProvider) Chat(ctx context.Context, messages []Message, model string) (*LLMResponse, error) {
	params, err := p.params(messages, model)
	if err != nil {
		return nil, err
	}

	log.WithField("model", params.Model).Debug("chat completion")

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, translate(err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	choice := completion.Choices[0]
	return &LLMResponse{
		Content:      choice.Message.Content,
		Model:        completion.Model,
		FinishReason: string(choice.FinishReason),
		Usage: map[string]int{
			"prompt_tokens":     int(completion.Usage.PromptTokens),
			"completion_tokens": int(completion.Usage.CompletionTokens),
			"total_tokens":      int(completion.Usage.TotalTokens),
		},
	}, nil
}

// Stream sends a chat completion request with streaming. The channel is
// closed when the stream ends; a failure is delivered as a chunk with Error.
func (p *ChatProvider) Stream(ctx context.Context, messages []Message, model string) (<-chan LLMStreamChunk, error) {
	params, err := p.params(messages, model)
	if err != nil {
		return nil, err
	}

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	ch := make(chan LLMStreamChunk)

	go func() {
		defer close(ch)
		defer stream.Close()

		send := func(c LLMStreamChunk) bool {
			select {
			case ch <- c:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) > 0 {
				choice := chunk.Choices[0]
				if choice.Delta.Content != "" && !send(LLMStreamChunk{Content: choice.Delta.Content}) {
					return
				}
				if choice.FinishReason != "" && !send(LLMStreamChunk{FinishReason: string(choice.FinishReason)}) {
					return
				}
			}
			if chunk.Usage.TotalTokens > 0 && !send(LLMStreamChunk{Usage: map[string]int{
				"prompt_tokens":     int(chunk.Usage.PromptTokens),
				"completion_tokens": int(chunk.Usage.CompletionTokens),
				"total_tokens":      int(chunk.Usage.TotalTokens),
			}}) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			send(LLMStreamChunk{Error: translate(err)})
		}
	}()

	return ch, nil
}

func (p *ChatProvider) params(messages []Message, model string) (openai.ChatCompletionNewParams, error) {
	if model == "" {
		model = p.opts.Model
	}
	if len(messages) == 0 {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("at least one message is required")
	}

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for i, m := range messages {
		switch m.Role {
		case RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case RoleUser, "":
			msgs = append(msgs, openai.UserMessage(m.Content))
		case RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			return openai.ChatCompletionNewParams{}, fmt.Errorf("message %d: unknown role %q", i, m.Role)
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:            openai.ChatModel(model),
		Messages:         msgs,
		Temperature:      openai.Float(p.opts.Temperature),
		TopP:             openai.Float(p.opts.TopP),
		FrequencyPenalty: openai.Float(p.opts.FrequencyPenalty),
		PresencePenalty:  openai.Float(p.opts.PresencePenalty),
	}
	if p.opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(p.opts.MaxTokens))
	}
	return params, nil
}

// translate maps known API statuses to the node's messages.
func translate(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if msg, ok := apierrors.Message(apiErr.StatusCode, apierrors.ContextText, apiErr.Message); ok {
			return fmt.Errorf("%s: %w", msg, err)
		}
	}
	return fmt.Errorf("pollinations chat error: %w", err)
}
