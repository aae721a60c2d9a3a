package providers

import (
	"github.com/new-xmon-df/pollinations-go/pkg/credentials"
	"github.com/new-xmon-df/pollinations-go/pkg/node"
)

// Describe returns the chat model sub-node description.
func Describe() node.Description {
	d := DefaultChatOptions()
	return node.Description{
		DisplayName: "Pollinations Chat Model",
		Name:        "pollinationsChatModel",
		Description: "Use Pollinations AI chat models with AI Agents and LLM Chains",
		Version:     1,
		Credentials: []node.CredentialRef{{Name: credentials.Name, Required: true}},
		Properties: []node.Property{
			{DisplayName: "Model", Name: "model", Type: "options", Default: d.Model, LoadOptionsMethod: "getChatModels", Description: "The model to use for chat completions"},
			{DisplayName: "Temperature", Name: "temperature", Type: "number", Default: d.Temperature, Description: "Controls randomness: 0 = deterministic, 2 = very creative"},
			{DisplayName: "Options", Name: "options", Type: "collection", Default: map[string]interface{}{}, Options: []node.Property{
				{DisplayName: "Max Tokens", Name: "maxTokens", Type: "number", Default: 0, Description: "Maximum tokens in response. 0 uses model default."},
				{DisplayName: "Top P", Name: "topP", Type: "number", Default: d.TopP, Description: "Nucleus sampling: consider tokens with top_p probability mass"},
				{DisplayName: "Frequency Penalty", Name: "frequencyPenalty", Type: "number", Default: 0, Description: "Reduce repetition of token sequences. Higher values decrease repetition."},
				{DisplayName: "Presence Penalty", Name: "presencePenalty", Type: "number", Default: 0, Description: "Increase likelihood of new topics. Higher values encourage novelty."},
				{DisplayName: "Timeout", Name: "timeout", Type: "number", Default: d.Timeout.Milliseconds(), Description: "Request timeout in milliseconds"},
			}},
		},
	}
}
