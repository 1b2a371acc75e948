package textfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesProfanity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "plain obscenity", text: "fuck this market", want: true},
		{name: "spaced letters", text: "f u c k this", want: true},
		{name: "mixed case", text: "ShIt coin", want: true},
		{name: "clean text", text: "great entry point for BTC", want: false},
		{name: "empty", text: "", want: false},
		{name: "embedded after boundary", text: "what the fuck", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MatchesProfanity(tt.text))
		})
	}
}

func TestContainsObscenity(t *testing.T) {
	t.Parallel()

	assert.True(t, ContainsObscenity("this is FUCKing great"))
	assert.False(t, ContainsObscenity("perfectly clean message"))
	// The substring check does not cover spaced-out spellings; the sentinel does.
	assert.False(t, ContainsObscenity("f u c k"))
}

func TestIsCommand(t *testing.T) {
	t.Parallel()

	assert.True(t, IsCommand("/stats"))
	assert.True(t, IsCommand("   /price BTC"))
	assert.False(t, IsCommand("just 1/2 of my bag"))
	assert.False(t, IsCommand(""))
}

func TestIsBlank(t *testing.T) {
	t.Parallel()

	assert.True(t, IsBlank(""))
	assert.True(t, IsBlank("  \t\n "))
	assert.False(t, IsBlank(" x "))
}

func TestIsShortAndSparse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "short two words", text: "gm ser", want: true},
		{name: "short single word", text: "lol", want: true},
		{name: "short but three words", text: "a b c", want: false},
		{name: "exactly ten chars", text: "0123456789", want: false},
		{name: "long text", text: "this is a proper sentence", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsShortAndSparse(tt.text))
		})
	}
}

func TestHasCharacterRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "five run", text: "moooooon", want: true},
		{name: "exactly five", text: "aaaaa", want: true},
		{name: "four run", text: "aaaa", want: false},
		{name: "unicode run", text: "ураааааа", want: true},
		{name: "no run", text: "to the moon", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, HasCharacterRun(tt.text))
		})
	}
}

func TestHasLowAlphanumericRatio(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "normal sentence", text: "buying more ETH on this dip", want: false},
		{name: "emoji spam", text: "🚀🚀🚀🚀 🔥🔥🔥", want: true},
		{name: "pure punctuation", text: "?!?!?!", want: true},
		{name: "mixed but mostly symbols", text: "a€€€€€€€€", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, HasLowAlphanumericRatio(tt.text))
		})
	}
}
