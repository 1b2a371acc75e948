// Package contract detects blockchain contract addresses in chat text.
package contract

import "strings"

// Base58 alphabet: alphanumerics excluding 0, O, I and l.
const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

const (
	minAddressLen = 32
	maxAddressLen = 44
)

// Keywords that, combined with an address match, flag a likely memecoin.
var memecoinKeywords = []string{"pump", "moon", "1000x", "100x", "ape", "ca", "contract", "degen"}

// Detection is the result of scanning a text for contract addresses.
type Detection struct {
	Addresses      []string
	LikelyMemecoin bool
}

var base58Set = func() [128]bool {
	var set [128]bool
	for _, r := range base58Alphabet {
		set[r] = true
	}
	return set
}()

func isBase58(r rune) bool {
	return r < 128 && base58Set[r]
}

// Detect scans the text for maximal Base58 runs of 32-44 characters and
// flags a likely memecoin when an address co-occurs with hype vocabulary.
// Runs longer than 44 characters are not addresses and are not truncated
// into one.
func Detect(text string) Detection {
	var d Detection

	runLen := 0
	runStart := 0
	flush := func(end int) {
		if runLen >= minAddressLen && runLen <= maxAddressLen {
			d.Addresses = append(d.Addresses, text[runStart:end])
		}
		runLen = 0
	}
	for i, r := range text {
		if isBase58(r) {
			if runLen == 0 {
				runStart = i
			}
			runLen++
			continue
		}
		flush(i)
	}
	flush(len(text))

	if len(d.Addresses) > 0 {
		lower := strings.ToLower(text)
		for _, kw := range memecoinKeywords {
			if strings.Contains(lower, kw) {
				d.LikelyMemecoin = true
				break
			}
		}
	}
	return d
}

// Topics returns the topic tags implied by the detection: token_address and
// contract_address on any match, plus memecoin and new_token when the hype
// flag is set.
func (d Detection) Topics() []string {
	if len(d.Addresses) == 0 {
		return nil
	}
	topics := []string{"token_address", "contract_address"}
	if d.LikelyMemecoin {
		topics = append(topics, "memecoin", "new_token")
	}
	return topics
}
