package node

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/new-xmon-df/pollinations-go/pkg/apierrors"
	"github.com/new-xmon-df/pollinations-go/pkg/pollinations"
)

// Operation is the node's operation selector.
type Operation string

const (
	OpGenerateImage              Operation = "generateImage"
	OpGenerateImageWithReference Operation = "generateImageWithReference"
	OpGenerateText               Operation = "generateText"
	OpGenerateSpeech             Operation = "generateSpeech"
	OpGenerateMusic              Operation = "generateMusic"
	OpGetBalance                 Operation = "getBalance"
)

// Valid reports whether op is one of the node's operations.
func (op Operation) Valid() bool {
	_, ok := operations[op]
	return ok
}

const (
	defaultImageSize      = 1024
	defaultTemperature    = 0.7
	defaultResponseFormat = "mp3"
	defaultMusicDuration  = 30
	imageNoSeed           = 0
	textNoSeed            = -1
)

type responseKind int

const (
	responseNone responseKind = iota
	responseBinary
	responseText
)

// speechMIME maps response_format values to MIME types.
var speechMIME = map[string]string{
	"mp3":  "audio/mpeg",
	"opus": "audio/opus",
	"aac":  "audio/aac",
	"flac": "audio/flac",
	"wav":  "audio/wav",
	"pcm":  "audio/pcm",
}

// paramNames are the host parameter names an operation reads.
type paramNames struct {
	prompt     string
	model      string
	options    string
	topLevel   []string
	optionKeys []string
}

// operationSpec describes one operation. Every generation operation runs
// through Node.runOperation with its spec.
type operationSpec struct {
	op          Operation
	name        string
	description string
	action      string
	path        string
	kind        responseKind
	errContext  apierrors.Context
	loadMethod  string
	params      paramNames
	defaults    func(*Request)
	validate    func(Request) error
	query       func(Request) *pollinations.Query
	echo        func(fullURL string, r Request) map[string]interface{}
	attachment  func(Request) (fileName, mimeType string)
	contentType func(Request) string
}

var imageOptionKeys = []string{"enhance", "height", "minimumBalance", "nologo", "safe", "seed", "width"}

var operations = map[Operation]*operationSpec{
	OpGenerateImage: {
		op:          OpGenerateImage,
		name:        "Generate Image",
		description: "Generate an image from a text prompt",
		action:      "Generate an image from a text prompt",
		path:        pollinations.PathImage,
		kind:        responseBinary,
		errContext:  apierrors.ContextImage,
		loadMethod:  "getImageModels",
		params: paramNames{
			prompt:     "prompt",
			model:      "model",
			options:    "options",
			optionKeys: imageOptionKeys,
		},
		query:       imageQuery,
		echo:        imageEcho,
		attachment:  func(Request) (string, string) { return "image.png", "image/png" },
		contentType: func(Request) string { return "image/png" },
	},
	OpGenerateImageWithReference: {
		op:          OpGenerateImageWithReference,
		name:        "Generate with Reference",
		description: "Generate an image using a reference image",
		action:      "Generate an image using a reference image",
		path:        pollinations.PathImage,
		kind:        responseBinary,
		errContext:  apierrors.ContextImage,
		loadMethod:  "getImageModelsWithReferenceSupport",
		params: paramNames{
			prompt:     "referencePrompt",
			model:      "referenceModel",
			options:    "referenceOptions",
			topLevel:   []string{"referenceImage"},
			optionKeys: imageOptionKeys,
		},
		validate: validateReferenceImage,
		query:    imageQuery,
		echo: func(fullURL string, r Request) map[string]interface{} {
			m := imageEcho(fullURL, r)
			m["referenceImage"] = r.ReferenceImage
			return m
		},
		attachment:  func(Request) (string, string) { return "image.png", "image/png" },
		contentType: func(Request) string { return "image/png" },
	},
	OpGenerateText: {
		op:          OpGenerateText,
		name:        "Generate Text",
		description: "Generate text from a prompt using AI",
		action:      "Generate text from a prompt",
		path:        pollinations.PathText,
		kind:        responseText,
		errContext:  apierrors.ContextText,
		loadMethod:  "getTextModels",
		params: paramNames{
			prompt:     "textPrompt",
			model:      "textModel",
			options:    "textOptions",
			topLevel:   []string{"systemPrompt", "temperature"},
			optionKeys: []string{"jsonMode", "minimumBalance", "seed"},
		},
		defaults: func(r *Request) {
			if r.Options.Temperature == nil {
				t := defaultTemperature
				r.Options.Temperature = &t
			}
		},
		query:       textQuery,
		echo:        textEcho,
		contentType: func(Request) string { return "text/plain" },
	},
	OpGenerateSpeech: {
		op:          OpGenerateSpeech,
		name:        "Generate Speech",
		description: "Convert text to speech using TTS",
		action:      "Convert text to speech",
		path:        pollinations.PathAudio,
		kind:        responseBinary,
		errContext:  apierrors.ContextAudio,
		loadMethod:  "getAudioTTSModels",
		params: paramNames{
			prompt:     "speechText",
			model:      "speechModel",
			options:    "speechOptions",
			topLevel:   []string{"voice"},
			optionKeys: []string{"minimumBalance", "responseFormat"},
		},
		defaults: func(r *Request) {
			if r.Options.ResponseFormat == "" {
				r.Options.ResponseFormat = defaultResponseFormat
			}
		},
		query: func(r Request) *pollinations.Query {
			q := modelQuery(r)
			q.Set("voice", r.Options.Voice)
			q.Set("response_format", r.Options.ResponseFormat)
			return q
		},
		echo: func(fullURL string, r Request) map[string]interface{} {
			return map[string]interface{}{
				"url":            fullURL,
				"text":           r.Prompt,
				"model":          r.Model,
				"voice":          r.Options.Voice,
				"responseFormat": r.Options.ResponseFormat,
			}
		},
		attachment:  speechAttachment,
		contentType: func(r Request) string { _, mime := speechAttachment(r); return mime },
	},
	OpGenerateMusic: {
		op:          OpGenerateMusic,
		name:        "Generate Music",
		description: "Generate music from a text prompt",
		action:      "Generate music from a text prompt",
		path:        pollinations.PathAudio,
		kind:        responseBinary,
		errContext:  apierrors.ContextAudio,
		loadMethod:  "getAudioMusicModels",
		params: paramNames{
			prompt:     "musicPrompt",
			model:      "musicModel",
			options:    "musicOptions",
			topLevel:   []string{"duration", "instrumental"},
			optionKeys: []string{"minimumBalance"},
		},
		defaults: func(r *Request) {
			if r.Options.Duration == 0 {
				r.Options.Duration = defaultMusicDuration
			}
		},
		query: func(r Request) *pollinations.Query {
			q := modelQuery(r)
			q.Set("duration", strconv.Itoa(r.Options.Duration))
			if r.Options.Instrumental {
				q.Set("instrumental", "true")
			}
			return q
		},
		echo: func(fullURL string, r Request) map[string]interface{} {
			return map[string]interface{}{
				"url":          fullURL,
				"prompt":       r.Prompt,
				"model":        r.Model,
				"duration":     r.Options.Duration,
				"instrumental": r.Options.Instrumental,
			}
		},
		attachment:  func(Request) (string, string) { return "music.mp3", "audio/mpeg" },
		contentType: func(Request) string { return "audio/mpeg" },
	},
	OpGetBalance: {
		op:          OpGetBalance,
		name:        "Get Balance",
		description: "Get current pollen balance from your account",
		action:      "Get current pollen balance",
		path:        pollinations.PathBalance,
		kind:        responseNone,
		errContext:  apierrors.ContextBalance,
	},
}

// operationOrder is the display order of the operation selector.
var operationOrder = []Operation{
	OpGenerateImage,
	OpGenerateMusic,
	OpGenerateSpeech,
	OpGenerateText,
	OpGenerateImageWithReference,
	OpGetBalance,
}

func modelQuery(r Request) *pollinations.Query {
	q := &pollinations.Query{}
	if r.Model != "" {
		q.Set("model", r.Model)
	}
	return q
}

func imageQuery(r Request) *pollinations.Query {
	q := modelQuery(r)
	if r.ReferenceImage != "" {
		q.Set("image", r.ReferenceImage)
	}
	if r.Options.Width != 0 {
		q.Set("width", strconv.Itoa(r.Options.Width))
	}
	if r.Options.Height != 0 {
		q.Set("height", strconv.Itoa(r.Options.Height))
	}
	if s := r.Options.Seed; s != nil && *s != imageNoSeed {
		q.Set("seed", strconv.FormatInt(*s, 10))
	}
	if r.Options.NoLogo {
		q.Set("nologo", "true")
	}
	if r.Options.Enhance {
		q.Set("enhance", "true")
	}
	if r.Options.Safe {
		q.Set("safe", "true")
	}
	return q
}

func imageEcho(fullURL string, r Request) map[string]interface{} {
	var seed interface{}
	if s := r.Options.Seed; s != nil && *s != imageNoSeed {
		seed = *s
	}
	return map[string]interface{}{
		"url":     fullURL,
		"prompt":  r.Prompt,
		"model":   r.Model,
		"width":   orDefault(r.Options.Width, defaultImageSize),
		"height":  orDefault(r.Options.Height, defaultImageSize),
		"seed":    seed,
		"nologo":  r.Options.NoLogo,
		"enhance": r.Options.Enhance,
		"safe":    r.Options.Safe,
	}
}

func textQuery(r Request) *pollinations.Query {
	q := modelQuery(r)
	q.Set("temperature", formatNumber(*r.Options.Temperature))
	if r.Options.SystemPrompt != "" {
		q.Set("system", r.Options.SystemPrompt)
	}
	if s := r.Options.Seed; s != nil && *s != textNoSeed {
		q.Set("seed", strconv.FormatInt(*s, 10))
	}
	if r.Options.JSONMode {
		q.Set("json", "true")
	}
	return q
}

func textEcho(fullURL string, r Request) map[string]interface{} {
	var system, seed interface{}
	if r.Options.SystemPrompt != "" {
		system = r.Options.SystemPrompt
	}
	if s := r.Options.Seed; s != nil && *s != textNoSeed {
		seed = *s
	}
	return map[string]interface{}{
		"url":         fullURL,
		"prompt":      r.Prompt,
		"model":       r.Model,
		"system":      system,
		"temperature": *r.Options.Temperature,
		"seed":        seed,
		"jsonMode":    r.Options.JSONMode,
	}
}

func speechAttachment(r Request) (string, string) {
	format := r.Options.ResponseFormat
	mime, ok := speechMIME[format]
	if !ok {
		format, mime = defaultResponseFormat, speechMIME[defaultResponseFormat]
	}
	return "speech." + format, mime
}

// validateReferenceImage accepts any absolute URL that names a resource:
// hierarchical ones need a host, opaque ones such as data: need a body.
func validateReferenceImage(r Request) error {
	u, err := url.Parse(r.ReferenceImage)
	if err != nil || !u.IsAbs() || (u.Host == "" && u.Opaque == "") {
		return fmt.Errorf("Invalid reference image URL: %q", r.ReferenceImage)
	}
	return nil
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
