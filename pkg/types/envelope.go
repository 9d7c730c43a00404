// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// ContentTypeText is the only content block kind serpfire emits.
const ContentTypeText = "text"

// ContentBlock is one piece of tool output.
type ContentBlock struct {
	Type string `json:"type" yaml:"type"`
	Text string `json:"text" yaml:"text"`
}

// Envelope is the uniform result of every tool invocation, success or
// failure, so callers never have to tell transport exceptions apart from
// business-level failures.
type Envelope struct {
	Content []ContentBlock `json:"content" yaml:"content"`
	IsError bool           `json:"isError,omitempty" yaml:"is_error,omitempty"`
}

// TextEnvelope returns a successful envelope holding a single text block.
func TextEnvelope(text string) Envelope {
	return Envelope{Content: []ContentBlock{{Type: ContentTypeText, Text: text}}}
}

// ErrorEnvelope returns a failed envelope holding msg.
func ErrorEnvelope(msg string) Envelope {
	env := TextEnvelope(msg)
	env.IsError = true
	return env
}

// Text concatenates the text of all blocks.
func (e Envelope) Text() string {
	if len(e.Content) == 1 {
		return e.Content[0].Text
	}
	var b strings.Builder
	for _, c := range e.Content {
		b.WriteString(c.Text)
	}
	return b.String()
}
