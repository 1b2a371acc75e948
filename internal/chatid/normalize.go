// Package chatid maps between the two equivalent Telegram group identifier
// encodings: the -100-prefixed supergroup form and the plain negated form.
// Records may be persisted under either, so every query scopes by the full
// equivalence set.
package chatid

import (
	"strconv"
	"strings"
)

// Normalize returns the set of both canonical encodings for a chat id, the
// input first. The result is idempotent as a set:
// Normalize(Normalize(x)[i]) yields the same pair for either element.
func Normalize(chatID int64) []int64 {
	s := strconv.FormatInt(chatID, 10)

	if strings.HasPrefix(s, "-100") {
		digits := strings.TrimPrefix(s, "-100")
		n, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			return []int64{chatID}
		}
		return dedupe(chatID, -n)
	}

	digits := strings.TrimPrefix(s, "-")
	alt, err := strconv.ParseInt("-100"+digits, 10, 64)
	if err != nil {
		return []int64{chatID}
	}
	return dedupe(chatID, alt)
}

func dedupe(a, b int64) []int64 {
	if a == b {
		return []int64{a}
	}
	return []int64{a, b}
}
