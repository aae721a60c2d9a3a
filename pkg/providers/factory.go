package providers

import (
	"context"
	"time"

	"github.com/new-xmon-df/pollinations-go/pkg/catalog"
	"github.com/new-xmon-df/pollinations-go/pkg/config"
	"github.com/new-xmon-df/pollinations-go/pkg/credentials"
)

// NewProvider creates the chat provider from configuration, reading the API
// key from store.
func NewProvider(ctx context.Context, cfg *config.Config, store credentials.Store, resolver catalog.ModelCatalogResolver) (*ChatProvider, error) {
	cred, err := store.Credential(ctx, credentials.Name)
	if err != nil {
		return nil, err
	}

	opts := DefaultChatOptions()
	chat := cfg.Chat
	if chat.Model != "" {
		opts.Model = chat.Model
	}
	opts.Temperature = chat.Temperature
	opts.MaxTokens = chat.MaxTokens
	opts.TopP = chat.TopP
	opts.FrequencyPenalty = chat.FrequencyPenalty
	opts.PresencePenalty = chat.PresencePenalty
	if chat.Timeout > 0 {
		opts.Timeout = time.Duration(chat.Timeout) * time.Millisecond
	}

	return NewChatProvider(cfg.API.Base, cred.APIKey, opts, resolver), nil
}
