package catalog

// Each list has two fallbacks. The catalog set is used when the API answered
// with something other than an array; the offline set when the request or
// decoding failed.
type fallback struct {
	catalog []Option
	offline []Option
}

var imageFallback = fallback{
	catalog: []Option{
		{Name: "Flux Schnell", Value: "flux"},
		{Name: "SDXL Turbo", Value: "turbo"},
		{Name: "GPT Image 1 Mini", Value: "gptimage"},
		{Name: "FLUX.1 Kontext [Paid]", Value: "kontext"},
		{Name: "Seedream 4.0 [Paid]", Value: "seedream"},
		{Name: "NanoBanana [Paid]", Value: "nanobanana"},
		{Name: "NanoBanana Pro [Paid]", Value: "nanobanana-pro"},
	},
	offline: []Option{
		{Name: "Flux Schnell", Value: "flux"},
		{Name: "SDXL Turbo", Value: "turbo"},
		{Name: "GPT Image 1 Mini", Value: "gptimage"},
		{Name: "FLUX.1 Kontext [Paid]", Value: "kontext"},
		{Name: "Seedream 4.0 [Paid]", Value: "seedream"},
	},
}

var referenceFallback = fallback{
	catalog: []Option{
		{Name: "FLUX.1 Kontext [Paid]", Value: "kontext"},
		{Name: "NanoBanana [Paid]", Value: "nanobanana"},
		{Name: "NanoBanana Pro [Paid]", Value: "nanobanana-pro"},
		{Name: "Seedream 4.0 [Paid]", Value: "seedream"},
		{Name: "GPT Image 1 Mini", Value: "gptimage"},
	},
}

var textFallback = fallback{
	catalog: []Option{
		{Name: "OpenAI GPT-4o Mini", Value: "openai"},
		{Name: "OpenAI GPT-4o Mini (Fast)", Value: "openai-fast"},
		{Name: "OpenAI GPT-4o (Large)", Value: "openai-large"},
		{Name: "Claude Sonnet 3.5 [Paid]", Value: "claude"},
		{Name: "Claude (Fast)", Value: "claude-fast"},
		{Name: "Claude (Large) [Paid]", Value: "claude-large"},
		{Name: "Gemini [Paid]", Value: "gemini"},
		{Name: "Gemini (Fast)", Value: "gemini-fast"},
		{Name: "Gemini (Large) [Paid]", Value: "gemini-large"},
		{Name: "DeepSeek V3", Value: "deepseek"},
		{Name: "Mistral", Value: "mistral"},
		{Name: "Grok [Paid]", Value: "grok"},
	},
	offline: []Option{
		{Name: "OpenAI GPT-4o Mini", Value: "openai"},
		{Name: "OpenAI GPT-4o Mini (Fast)", Value: "openai-fast"},
		{Name: "OpenAI GPT-4o (Large)", Value: "openai-large"},
		{Name: "Claude Sonnet 3.5 [Paid]", Value: "claude"},
		{Name: "Mistral", Value: "mistral"},
		{Name: "DeepSeek V3", Value: "deepseek"},
	},
}

var ttsFallback = fallback{
	catalog: []Option{{Name: "ElevenLabs TTS", Value: "elevenlabs"}},
}

var musicFallback = fallback{
	catalog: []Option{{Name: "ElevenLabs Music", Value: "elevenmusic"}},
}

var voiceFallback = fallback{
	catalog: []Option{
		{Name: "Alloy", Value: "alloy"},
		{Name: "Echo", Value: "echo"},
		{Name: "Fable", Value: "fable"},
		{Name: "Nova", Value: "nova"},
		{Name: "Onyx", Value: "onyx"},
		{Name: "Shimmer", Value: "shimmer"},
	},
}

func (f fallback) options(offline bool) []Option {
	src := f.catalog
	if offline && f.offline != nil {
		src = f.offline
	}
	out := make([]Option, len(src))
	copy(out, src)
	return out
}

var chatFallback = fallback{
	catalog: []Option{
		{Name: "OpenAI GPT-4o Mini", Value: "openai"},
		{Name: "OpenAI GPT-4o Mini (Fast)", Value: "openai-fast"},
		{Name: "OpenAI GPT-4o (Large)", Value: "openai-large"},
		{Name: "Claude Sonnet 3.5", Value: "claude"},
		{Name: "Claude (Fast)", Value: "claude-fast"},
		{Name: "Claude (Large)", Value: "claude-large"},
		{Name: "Gemini", Value: "gemini"},
		{Name: "Gemini (Fast)", Value: "gemini-fast"},
		{Name: "Gemini (Large)", Value: "gemini-large"},
		{Name: "DeepSeek V3", Value: "deepseek"},
		{Name: "Mistral", Value: "mistral"},
		{Name: "Grok", Value: "grok"},
	},
	offline: []Option{
		{Name: "OpenAI GPT-4o Mini", Value: "openai"},
		{Name: "OpenAI GPT-4o Mini (Fast)", Value: "openai-fast"},
		{Name: "OpenAI GPT-4o (Large)", Value: "openai-large"},
		{Name: "Claude Sonnet 3.5", Value: "claude"},
		{Name: "Mistral", Value: "mistral"},
		{Name: "DeepSeek V3", Value: "deepseek"},
	},
}
