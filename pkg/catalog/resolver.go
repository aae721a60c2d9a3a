package catalog

import (
	"context"
	"encoding/json"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/new-xmon-df/pollinations-go/pkg/pollinations"
)

// errNotArray marks a listing that decoded but was not a JSON array.
var errNotArray = errors.New("model listing is not an array")

// ModelCatalogResolver populates the node's dynamic dropdowns. Methods never
// fail: when the listing cannot be used a static list is returned instead.
type ModelCatalogResolver interface {
	ImageModels(ctx context.Context) []Option
	ImageModelsWithReference(ctx context.Context) []Option
	TextModels(ctx context.Context) []Option
	TTSModels(ctx context.Context) []Option
	MusicModels(ctx context.Context) []Option
	Voices(ctx context.Context) []Option
	ChatModels(ctx context.Context) []Option
}

// Fetcher returns the raw body of a model listing endpoint.
type Fetcher interface {
	Models(ctx context.Context, kind pollinations.ModelKind) ([]byte, error)
}

// Resolver is the ModelCatalogResolver backed by the live API. It keeps no
// cache; every call fetches the listing again.
type Resolver struct {
	Fetcher Fetcher
}

// NewResolver creates a new Resolver.
func NewResolver(f Fetcher) *Resolver {
	return &Resolver{Fetcher: f}
}

var _ ModelCatalogResolver = (*Resolver)(nil)

// LoadMethods maps the loadOptionsMethod names used in the node description
// to resolver methods.
func LoadMethods(r ModelCatalogResolver) map[string]func(context.Context) []Option {
	return map[string]func(context.Context) []Option{
		"getImageModels":                     r.ImageModels,
		"getImageModelsWithReferenceSupport": r.ImageModelsWithReference,
		"getTextModels":                      r.TextModels,
		"getAudioTTSModels":                  r.TTSModels,
		"getAudioMusicModels":                r.MusicModels,
		"getTTSVoices":                       r.Voices,
		"getChatModels":                      r.ChatModels,
	}
}

func (r *Resolver) ImageModels(ctx context.Context) []Option {
	return r.resolve(ctx, "image models", pollinations.ImageModels, imageFallback, func(m []ModelDescriptor) []Option {
		return ImageOptions(FilterImage(m))
	})
}

func (r *Resolver) ImageModelsWithReference(ctx context.Context) []Option {
	return r.resolve(ctx, "reference models", pollinations.ImageModels, referenceFallback, func(m []ModelDescriptor) []Option {
		return ImageOptions(FilterImageWithReference(m))
	})
}

func (r *Resolver) TextModels(ctx context.Context) []Option {
	return r.resolve(ctx, "text models", pollinations.TextModels, textFallback, func(m []ModelDescriptor) []Option {
		return TextOptions(FilterText(m))
	})
}

func (r *Resolver) TTSModels(ctx context.Context) []Option {
	return r.resolve(ctx, "tts models", pollinations.AudioModels, ttsFallback, func(m []ModelDescriptor) []Option {
		return AudioOptions(FilterTTS(m))
	})
}

func (r *Resolver) MusicModels(ctx context.Context) []Option {
	return r.resolve(ctx, "music models", pollinations.AudioModels, musicFallback, func(m []ModelDescriptor) []Option {
		return AudioOptions(FilterMusic(m))
	})
}

func (r *Resolver) Voices(ctx context.Context) []Option {
	return r.resolve(ctx, "voices", pollinations.AudioModels, voiceFallback, VoiceOptions)
}

func (r *Resolver) ChatModels(ctx context.Context) []Option {
	return r.resolve(ctx, "chat models", pollinations.TextModels, chatFallback, func(m []ModelDescriptor) []Option {
		return ChatOptions(FilterText(m))
	})
}

func (r *Resolver) resolve(ctx context.Context, list string, kind pollinations.ModelKind, fb fallback, build func([]ModelDescriptor) []Option) []Option {
	models, err := r.fetch(ctx, kind)
	if err != nil {
		offline := !errors.Is(err, errNotArray)
		log.WithFields(log.Fields{"list": list, "offline": offline}).Warnf("using fallback options: %v", err)
		return fb.options(offline)
	}
	return build(models)
}

func (r *Resolver) fetch(ctx context.Context, kind pollinations.ModelKind) ([]ModelDescriptor, error) {
	body, err := r.Fetcher.Models(ctx, kind)
	if err != nil {
		return nil, err
	}

	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	if _, ok := raw.([]interface{}); !ok {
		return nil, errNotArray
	}

	var models []ModelDescriptor
	if err := json.Unmarshal(body, &models); err != nil {
		return nil, err
	}
	return models, nil
}
