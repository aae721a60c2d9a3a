package tools

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/new-xmon-df/pollinations-go/pkg/config"
	"github.com/new-xmon-df/pollinations-go/pkg/node"
	"github.com/new-xmon-df/pollinations-go/pkg/utils"
)

// Executor runs node operations.
type Executor interface {
	Execute(ctx context.Context, op node.Operation, reqs []node.Request) ([]node.Item, error)
}

// argNames maps tool argument names to request field names.
var argNames = map[string]string{
	"prompt":          "prompt",
	"model":           "model",
	"reference_image": "referenceImage",
	"width":           "width",
	"height":          "height",
	"seed":            "seed",
	"nologo":          "nologo",
	"enhance":         "enhance",
	"safe":            "safe",
	"system_prompt":   "systemPrompt",
	"temperature":     "temperature",
	"json_mode":       "jsonMode",
	"voice":           "voice",
	"response_format": "responseFormat",
	"duration":        "duration",
	"instrumental":    "instrumental",
	"minimum_balance": "minimumBalance",
}

// PollinationsTool exposes the node operations to an LLM agent. Generated
// files are written to OutputDir.
type PollinationsTool struct {
	Node      Executor
	Defaults  config.DefaultsConfig
	OutputDir string
}

// NewPollinationsTool creates a new PollinationsTool.
func NewPollinationsTool(n Executor, cfg *config.Config) *PollinationsTool {
	return &PollinationsTool{
		Node:      n,
		Defaults:  cfg.Defaults,
		OutputDir: cfg.OutputDir,
	}
}

func (t *PollinationsTool) Name() string {
	return "pollinations"
}

func (t *PollinationsTool) Description() string {
	return "Generate images, text, speech and music with Pollinations AI, or read the pollen balance. Generated media is saved to a file whose path is returned."
}

func (t *PollinationsTool) ToSchema() map[string]interface{} {
	return GenerateSchema(t)
}

func (t *PollinationsTool) Parameters() map[string]interface{} {
	str := func(desc string) map[string]interface{} {
		return map[string]interface{}{"type": "string", "description": desc}
	}
	num := func(desc string) map[string]interface{} {
		return map[string]interface{}{"type": "number", "description": desc}
	}
	flag := func(desc string) map[string]interface{} {
		return map[string]interface{}{"type": "boolean", "description": desc}
	}

	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"operation": map[string]interface{}{
				"type":        "string",
				"description": "The operation to run.",
				"enum": []string{
					string(node.OpGenerateImage),
					string(node.OpGenerateImageWithReference),
					string(node.OpGenerateText),
					string(node.OpGenerateSpeech),
					string(node.OpGenerateMusic),
					string(node.OpGetBalance),
				},
			},
			"prompt":          str("Prompt, or the text to speak for generateSpeech."),
			"model":           str("Model ID (optional)."),
			"reference_image": str("Reference image URL for generateImageWithReference."),
			"width":           num("Image width in pixels."),
			"height":          num("Image height in pixels."),
			"seed":            num("Seed. 0 means random for images, -1 for text."),
			"nologo":          flag("Remove the watermark."),
			"enhance":         flag("Enhance the prompt."),
			"safe":            flag("Enable the content safety filter."),
			"system_prompt":   str("System prompt for generateText."),
			"temperature":     num("Sampling temperature for generateText."),
			"json_mode":       flag("Ask generateText for a JSON answer."),
			"voice":           str("Voice for generateSpeech."),
			"response_format": map[string]interface{}{"type": "string", "enum": []string{"mp3", "opus", "aac", "flac", "wav", "pcm"}},
			"duration":        num("Music duration in seconds."),
			"instrumental":    flag("Generate instrumental music only."),
			"minimum_balance": num("Fail unless the account holds at least this many pollens."),
		},
		"required": []string{"operation"},
	}
}

func (t *PollinationsTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	opName, _ := args["operation"].(string)
	op := node.Operation(opName)
	if !op.Valid() {
		return "", fmt.Errorf("unsupported operation: %s", opName)
	}

	fields := make(map[string]interface{}, len(args))
	for arg, v := range args {
		if name, ok := argNames[arg]; ok {
			fields[name] = v
		}
	}
	req, err := node.RequestFromMap(fields)
	if err != nil {
		return "", err
	}
	t.applyDefaults(op, &req)

	items, err := t.Node.Execute(ctx, op, []node.Request{req})
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", fmt.Errorf("no result")
	}

	item := items[0]
	out := item.JSON
	if item.Binary != nil {
		path, err := utils.SaveMedia(t.OutputDir, item.Binary.FileName, item.Binary.Data)
		if err != nil {
			return "", err
		}
		log.WithFields(log.Fields{"operation": op, "file": path}).Info("saved generated media")
		out = make(map[string]interface{}, len(item.JSON)+1)
		for k, v := range item.JSON {
			out[k] = v
		}
		out["file"] = path
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (t *PollinationsTool) applyDefaults(op node.Operation, req *node.Request) {
	if req.Model == "" {
		req.Model = t.Defaults.ModelFor(string(op))
	}
	if op == node.OpGenerateSpeech && req.Options.Voice == "" {
		req.Options.Voice = t.Defaults.Voice
	}
	if req.Options.MinimumBalance == 0 {
		req.Options.MinimumBalance = t.Defaults.MinimumBalance
	}
}
