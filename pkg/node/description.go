package node

import "github.com/new-xmon-df/pollinations-go/pkg/credentials"

// Description is the node type description handed to the host.
type Description struct {
	DisplayName string           `json:"displayName"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Version     int              `json:"version"`
	Credentials []CredentialRef  `json:"credentials"`
	Operations  []OperationEntry `json:"operations"`
	Properties  []Property       `json:"properties"`
}

type CredentialRef struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
}

type OperationEntry struct {
	Name        string `json:"name"`
	Value       string `json:"value"`
	Description string `json:"description"`
	Action      string `json:"action"`
}

// Property is one node parameter. Collections list their fields in Options.
type Property struct {
	DisplayName       string              `json:"displayName"`
	Name              string              `json:"name"`
	Type              string              `json:"type"`
	Default           interface{}         `json:"default"`
	Required          bool                `json:"required,omitempty"`
	Description       string              `json:"description,omitempty"`
	LoadOptionsMethod string              `json:"loadOptionsMethod,omitempty"`
	DisplayOptions    map[string][]string `json:"displayOptions,omitempty"`
	Options           []Property          `json:"options,omitempty"`
	Values            []string            `json:"values,omitempty"`
}

// fields holds the definition of every option or top-level field by name.
var fields = map[string]Property{
	"enhance":        {DisplayName: "Enhance Prompt", Type: "boolean", Default: false, Description: "Whether to automatically enhance the prompt for better results"},
	"height":         {DisplayName: "Height", Type: "number", Default: defaultImageSize, Description: "Height of the generated image in pixels"},
	"width":          {DisplayName: "Width", Type: "number", Default: defaultImageSize, Description: "Width of the generated image in pixels"},
	"minimumBalance": {DisplayName: "Minimum Balance", Type: "number", Default: 0, Description: "Minimum pollen balance required to execute. Set to 0 to disable check."},
	"nologo":         {DisplayName: "No Logo", Type: "boolean", Default: false, Description: "Whether to remove the Pollinations watermark"},
	"safe":           {DisplayName: "Safe Mode", Type: "boolean", Default: false, Description: "Whether to enable content safety filter"},
	"seed":           {DisplayName: "Seed", Type: "number", Default: imageNoSeed, Description: "Seed for reproducible generation. Use 0 for random."},
	"referenceImage": {DisplayName: "Reference Image URL", Type: "string", Default: "", Required: true, Description: "URL of the image to use as reference"},
	"systemPrompt":   {DisplayName: "System Prompt", Type: "string", Default: "", Description: "Instructions that define the AI behavior and context"},
	"temperature":    {DisplayName: "Temperature", Type: "number", Default: defaultTemperature, Description: "Controls creativity: 0.0 = strict/deterministic, 2.0 = very creative"},
	"jsonMode":       {DisplayName: "JSON Response", Type: "boolean", Default: false, Description: "Whether to force the response in JSON format"},
	"voice":          {DisplayName: "Voice Name or ID", Type: "options", Default: "", LoadOptionsMethod: "getTTSVoices", Description: "The voice to use for speech"},
	"responseFormat": {DisplayName: "Response Format", Type: "options", Default: defaultResponseFormat, Values: []string{"aac", "flac", "mp3", "opus", "pcm", "wav"}},
	"duration":       {DisplayName: "Duration (Seconds)", Type: "number", Default: defaultMusicDuration, Description: "Duration of the generated music in seconds"},
	"instrumental":   {DisplayName: "Instrumental", Type: "boolean", Default: false, Description: "Whether to generate instrumental music only (no vocals)"},
}

func field(name string, textSeed bool) Property {
	p := fields[name]
	p.Name = name
	if name == "seed" && textSeed {
		p.Default = textNoSeed
		p.Description = "Seed for reproducible generation. Use -1 for random."
	}
	return p
}

// Describe returns the node description built from the operation table.
func Describe() Description {
	d := Description{
		DisplayName: Name,
		Name:        "pollinations",
		Description: "Generate images, text, speech and music using Pollinations AI",
		Version:     1,
		Credentials: []CredentialRef{{Name: credentials.Name, Required: true}},
	}

	for _, op := range operationOrder {
		spec := operations[op]
		d.Operations = append(d.Operations, OperationEntry{
			Name:        spec.name,
			Value:       string(op),
			Description: spec.description,
			Action:      spec.action,
		})
		if spec.params.prompt == "" {
			continue
		}

		show := map[string][]string{"operation": {string(op)}}
		promptName := "Prompt"
		if op == OpGenerateSpeech {
			promptName = "Text"
		}
		props := []Property{
			{DisplayName: promptName, Name: spec.params.prompt, Type: "string", Default: "", Required: true},
			{DisplayName: "Model Name or ID", Name: spec.params.model, Type: "options", Default: "", LoadOptionsMethod: spec.loadMethod},
		}
		for _, name := range spec.params.topLevel {
			props = append(props, field(name, false))
		}
		coll := Property{DisplayName: "Options", Name: spec.params.options, Type: "collection", Default: map[string]interface{}{}}
		for _, name := range spec.params.optionKeys {
			coll.Options = append(coll.Options, field(name, op == OpGenerateText))
		}
		props = append(props, coll)

		for _, p := range props {
			p.DisplayOptions = show
			d.Properties = append(d.Properties, p)
		}
	}
	return d
}
