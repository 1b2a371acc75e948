package chatid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   int64
		want []int64
	}{
		{name: "supergroup form", in: -1001234567890, want: []int64{-1001234567890, -1234567890}},
		{name: "plain form", in: -1234567890, want: []int64{-1234567890, -1001234567890}},
		{name: "positive id", in: 42, want: []int64{42, -10042}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotentAsSet(t *testing.T) {
	t.Parallel()

	for _, id := range []int64{-1001234567890, -1234567890} {
		first := Normalize(id)
		for _, member := range first {
			again := Normalize(member)
			assert.ElementsMatch(t, first, again, "normalize(%d) via %d", id, member)
		}
	}
}

func TestNormalizeBothFormsScopeSameChat(t *testing.T) {
	t.Parallel()

	a := Normalize(-1009876543210)
	b := Normalize(-9876543210)
	assert.ElementsMatch(t, a, b)
}
