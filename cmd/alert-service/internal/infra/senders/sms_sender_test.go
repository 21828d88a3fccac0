package senders

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateSMS(t *testing.T) {
	testCases := []struct {
		name string
		text string
		want string
	}{
		{"short ascii unchanged", "short alert", "short alert"},
		{"exactly at limit", strings.Repeat("a", smsMaxLength), strings.Repeat("a", smsMaxLength)},
		{"long ascii truncated", strings.Repeat("a", smsMaxLength+40), strings.Repeat("a", smsMaxLength)},
		{"long multibyte truncated", strings.Repeat("延", smsMaxLength+1), strings.Repeat("延", smsMaxLength)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := truncateSMS(tc.text, smsMaxLength)
			assert.Equal(t, tc.want, got)
			assert.True(t, utf8.ValidString(got), "truncation must never split a rune")
		})
	}
}

func TestTruncateSMS_CutFallsInsideRune(t *testing.T) {
	// 截断点落在多字节字符中间时不得产生非法 UTF-8
	text := strings.Repeat("a", smsMaxLength-1) + "延迟"
	got := truncateSMS(text, smsMaxLength)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, smsMaxLength, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "延"))
}
