package catalog

import "sort"

func filter(models []ModelDescriptor, keep func(ModelDescriptor) bool) []ModelDescriptor {
	out := make([]ModelDescriptor, 0, len(models))
	for _, m := range models {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

func isImageModel(m ModelDescriptor) bool {
	return m.Outputs(ModalityImage) && !m.Outputs(ModalityVideo)
}

func isTextModel(m ModelDescriptor) bool {
	return m.Outputs(ModalityText) && !m.Outputs(ModalityImage) && !m.Outputs(ModalityVideo)
}

func isTTSModel(m ModelDescriptor) bool {
	return m.Outputs(ModalityAudio) && len(m.Voices) > 0
}

func isMusicModel(m ModelDescriptor) bool {
	return m.Outputs(ModalityAudio) && len(m.Voices) == 0 && !m.Inputs(ModalityAudio)
}

// FilterImage keeps image models, dropping anything that also outputs video.
func FilterImage(models []ModelDescriptor) []ModelDescriptor {
	return filter(models, isImageModel)
}

// FilterImageWithReference keeps image models that accept an image input.
func FilterImageWithReference(models []ModelDescriptor) []ModelDescriptor {
	return filter(models, func(m ModelDescriptor) bool {
		return isImageModel(m) && m.Inputs(ModalityImage)
	})
}

// FilterText keeps text-only output models.
func FilterText(models []ModelDescriptor) []ModelDescriptor {
	return filter(models, isTextModel)
}

// FilterTTS keeps audio models that expose voices.
func FilterTTS(models []ModelDescriptor) []ModelDescriptor {
	return filter(models, isTTSModel)
}

// FilterMusic keeps audio models without voices that do not take audio in.
func FilterMusic(models []ModelDescriptor) []ModelDescriptor {
	return filter(models, isMusicModel)
}

// ImageOptions labels image models with an img/$ hint.
func ImageOptions(models []ModelDescriptor) []Option {
	return toOptions(models, func(p *Pricing) float64 { return p.CompletionImageTokens }, UnitImages)
}

// TextOptions labels text models with a resp/$ hint.
func TextOptions(models []ModelDescriptor) []Option {
	return toOptions(models, func(p *Pricing) float64 { return p.CompletionTextTokens }, UnitResponses)
}

// ChatOptions labels chat models with a resp/$ hint. Chat dropdowns carry
// no [Paid] marker.
func ChatOptions(models []ModelDescriptor) []Option {
	opts := make([]Option, 0, len(models))
	for _, m := range models {
		var p float64
		if m.Pricing != nil {
			p = m.Pricing.CompletionTextTokens
		}
		m.PaidOnly = false
		opts = append(opts, Option{Name: Label(m, p, UnitResponses), Value: m.Name})
	}
	return opts
}

// AudioOptions labels audio models with a gen/$ hint.
func AudioOptions(models []ModelDescriptor) []Option {
	return toOptions(models, func(p *Pricing) float64 { return p.CompletionAudioTokens }, UnitGenerations)
}

func toOptions(models []ModelDescriptor, price func(*Pricing) float64, unit CostUnit) []Option {
	opts := make([]Option, 0, len(models))
	for _, m := range models {
		var p float64
		if m.Pricing != nil {
			p = price(m.Pricing)
		}
		opts = append(opts, Option{Name: Label(m, p, unit), Value: m.Name})
	}
	return opts
}

// VoiceOptions collects the voices of every audio model, deduplicated and
// sorted.
func VoiceOptions(models []ModelDescriptor) []Option {
	seen := make(map[string]struct{})
	var voices []string
	for _, m := range models {
		if !m.Outputs(ModalityAudio) {
			continue
		}
		for _, v := range m.Voices {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			voices = append(voices, v)
		}
	}
	sort.Strings(voices)

	opts := make([]Option, 0, len(voices))
	for _, v := range voices {
		opts = append(opts, Option{Name: Capitalize(v), Value: v})
	}
	return opts
}
