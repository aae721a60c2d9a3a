package node

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Options carries the operation-specific optional fields. Nil pointers mean
// "not supplied".
type Options struct {
	Width          int      `json:"width,omitempty"`
	Height         int      `json:"height,omitempty"`
	Seed           *int64   `json:"seed,omitempty"`
	NoLogo         bool     `json:"nologo,omitempty"`
	Enhance        bool     `json:"enhance,omitempty"`
	Safe           bool     `json:"safe,omitempty"`
	SystemPrompt   string   `json:"systemPrompt,omitempty"`
	Temperature    *float64 `json:"temperature,omitempty"`
	JSONMode       bool     `json:"jsonMode,omitempty"`
	Voice          string   `json:"voice,omitempty"`
	ResponseFormat string   `json:"responseFormat,omitempty"`
	Duration       int      `json:"duration,omitempty"`
	Instrumental   bool     `json:"instrumental,omitempty"`
	MinimumBalance float64  `json:"minimumBalance,omitempty"`
}

// Request is one resolved invocation for one input item. Prompt is the text
// to speak for generateSpeech.
type Request struct {
	Prompt         string  `json:"prompt"`
	Model          string  `json:"model"`
	ReferenceImage string  `json:"referenceImage,omitempty"`
	Options        Options `json:"options"`
}

// ParameterSource is the host's parameter store.
type ParameterSource interface {
	ItemCount() int
	Parameter(name string, itemIndex int) (interface{}, bool)
}

// MapSource is a ParameterSource with the same parameters for every item.
type MapSource struct {
	Params map[string]interface{}
	Items  int
}

func (s MapSource) ItemCount() int {
	if s.Items <= 0 {
		return 1
	}
	return s.Items
}

func (s MapSource) Parameter(name string, _ int) (interface{}, bool) {
	v, ok := s.Params[name]
	return v, ok
}

// SliceSource gives each item its own parameter map.
type SliceSource []map[string]interface{}

func (s SliceSource) ItemCount() int {
	return len(s)
}

func (s SliceSource) Parameter(name string, itemIndex int) (interface{}, bool) {
	if itemIndex < 0 || itemIndex >= len(s) {
		return nil, false
	}
	v, ok := s[itemIndex][name]
	return v, ok
}

// OperationFrom reads the operation parameter of the first item.
func OperationFrom(src ParameterSource) (Operation, error) {
	v, ok := src.Parameter("operation", 0)
	if !ok {
		return OpGenerateImage, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("operation must be a string, got %T", v)
	}
	op := Operation(s)
	if !op.Valid() {
		return "", fmt.Errorf("unknown operation: %s", s)
	}
	return op, nil
}

// ResolveRequest reads the parameters of one item for op, using the node's
// parameter names.
func ResolveRequest(src ParameterSource, op Operation, itemIndex int) (Request, error) {
	spec, ok := operations[op]
	if !ok || spec.params.prompt == "" {
		return Request{}, fmt.Errorf("operation %s takes no item parameters", op)
	}

	var req Request
	var err error
	get := func(name string) (interface{}, bool) {
		return src.Parameter(name, itemIndex)
	}

	if v, ok := get(spec.params.prompt); ok {
		if req.Prompt, err = toString(v); err != nil {
			return req, fmt.Errorf("%s: %w", spec.params.prompt, err)
		}
	}
	if v, ok := get(spec.params.model); ok {
		if req.Model, err = toString(v); err != nil {
			return req, fmt.Errorf("%s: %w", spec.params.model, err)
		}
	}
	for _, name := range spec.params.topLevel {
		if v, ok := get(name); ok {
			if err := applyField(&req, name, v); err != nil {
				return req, err
			}
		}
	}
	if v, ok := get(spec.params.options); ok && v != nil {
		coll, ok := v.(map[string]interface{})
		if !ok {
			return req, fmt.Errorf("%s must be a collection, got %T", spec.params.options, v)
		}
		for _, name := range spec.params.optionKeys {
			if ov, ok := coll[name]; ok {
				if err := applyField(&req, name, ov); err != nil {
					return req, err
				}
			}
		}
	}
	return req, nil
}

// RequestFromMap builds a request from flat, canonical field names (prompt,
// model, referenceImage and every Options field).
func RequestFromMap(m map[string]interface{}) (Request, error) {
	var req Request
	for name, v := range m {
		if err := applyField(&req, name, v); err != nil {
			return req, err
		}
	}
	return req, nil
}

func applyField(req *Request, name string, v interface{}) error {
	if v == nil {
		return nil
	}
	var err error
	o := &req.Options
	switch name {
	case "prompt", "text":
		req.Prompt, err = toString(v)
	case "model":
		req.Model, err = toString(v)
	case "referenceImage":
		req.ReferenceImage, err = toString(v)
	case "width":
		o.Width, err = toInt(v)
	case "height":
		o.Height, err = toInt(v)
	case "seed":
		var n int
		if n, err = toInt(v); err == nil {
			seed := int64(n)
			o.Seed = &seed
		}
	case "nologo":
		o.NoLogo, err = toBool(v)
	case "enhance":
		o.Enhance, err = toBool(v)
	case "safe":
		o.Safe, err = toBool(v)
	case "systemPrompt":
		o.SystemPrompt, err = toString(v)
	case "temperature":
		var f float64
		if f, err = toFloat(v); err == nil {
			o.Temperature = &f
		}
	case "jsonMode":
		o.JSONMode, err = toBool(v)
	case "voice":
		o.Voice, err = toString(v)
	case "responseFormat":
		o.ResponseFormat, err = toString(v)
	case "duration":
		o.Duration, err = toInt(v)
	case "instrumental":
		o.Instrumental, err = toBool(v)
	case "minimumBalance":
		o.MinimumBalance, err = toFloat(v)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func toString(v interface{}) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case fmt.Stringer:
		return t.String(), nil
	case float64, float32, int, int64, int32, bool:
		return fmt.Sprint(t), nil
	}
	return "", fmt.Errorf("expected string, got %T", v)
}

func toFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case json.Number:
		return t.Float64()
	case string:
		if strings.TrimSpace(t) == "" {
			return 0, nil
		}
		return strconv.ParseFloat(strings.TrimSpace(t), 64)
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}

func toInt(v interface{}) (int, error) {
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("expected integer, got %v", f)
	}
	return int(f), nil
}

func toBool(v interface{}) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		if t == "" {
			return false, nil
		}
		return strconv.ParseBool(t)
	}
	return false, fmt.Errorf("expected boolean, got %T", v)
}
