// Package catalog turns the remote model listings into dropdown options.
package catalog

import (
	"math"
	"strconv"
	"strings"
)

const (
	ModalityImage = "image"
	ModalityText  = "text"
	ModalityAudio = "audio"
	ModalityVideo = "video"
)

// Pricing holds per-unit costs in pollen. Zero means not reported.
type Pricing struct {
	CompletionImageTokens float64 `json:"completionImageTokens,omitempty"`
	CompletionTextTokens  float64 `json:"completionTextTokens,omitempty"`
	CompletionAudioTokens float64 `json:"completionAudioTokens,omitempty"`
}

// ModelDescriptor is one entry of a /<kind>/models listing.
type ModelDescriptor struct {
	Name             string   `json:"name"`
	Description      string   `json:"description,omitempty"`
	OutputModalities []string `json:"output_modalities,omitempty"`
	InputModalities  []string `json:"input_modalities,omitempty"`
	Voices           []string `json:"voices,omitempty"`
	Pricing          *Pricing `json:"pricing,omitempty"`
	PaidOnly         bool     `json:"paid_only,omitempty"`
}

// Option is a (label, id) pair for a host dropdown.
type Option struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (m ModelDescriptor) Outputs(modality string) bool {
	return contains(m.OutputModalities, modality)
}

func (m ModelDescriptor) Inputs(modality string) bool {
	return contains(m.InputModalities, modality)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// CostUnit is the suffix used in a cost hint.
type CostUnit string

const (
	UnitImages      CostUnit = "img/$"
	UnitResponses   CostUnit = "resp/$"
	UnitGenerations CostUnit = "gen/$"
)

// PerDollar returns floor(1/price). ok is false for prices that should not
// produce a hint (zero, negative, NaN).
func PerDollar(price float64) (int64, bool) {
	if !(price > 0) || math.IsInf(price, 0) {
		return 0, false
	}
	n := math.Floor(1 / price)
	if n > math.MaxInt64 {
		return math.MaxInt64, true
	}
	return int64(n), true
}

// Label builds the display name: description or name, cost hint, [Paid].
func Label(m ModelDescriptor, price float64, unit CostUnit) string {
	label := m.Description
	if label == "" {
		label = m.Name
	}
	if n, ok := PerDollar(price); ok {
		label += " (~" + groupThousands(n) + " " + string(unit) + ")"
	}
	if m.PaidOnly {
		label += " [Paid]"
	}
	return label
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var sb strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		sb.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(s[i : i+3])
	}
	return sb.String()
}

// Capitalize upper-cases the first letter.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
