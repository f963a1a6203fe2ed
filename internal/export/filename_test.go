package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputFilename(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"empty title", "", "storybook.mp4"},
		{"whitespace only", "   ", "storybook.mp4"},
		{"symbols only", "!!!", "storybook.mp4"},
		{"simple title", "Luna", "luna.mp4"},
		{"spaces become dashes", "The Brave Little Fox", "the-brave-little-fox.mp4"},
		{"punctuation collapses", "Max & Mia: Lost at Sea!", "max-mia-lost-at-sea.mp4"},
		{"keeps digits and underscores", "story_2 draft", "story_2-draft.mp4"},
		{"trims edge dashes", "  --A Tale--  ", "a-tale.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OutputFilename(tt.title))
		})
	}
}
