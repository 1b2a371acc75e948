package analyzer

import "regexp"

// Salvage parsing for backend responses that fail the strict JSON parse:
// scalar fields are pulled with per-field regexes, list fields with a
// bracketed capture. Anything missing keeps the degraded default.

var (
	// The leading guard keeps "cryptoSentiment" from satisfying this pattern.
	sentimentRe       = regexp.MustCompile(`(?i)(?:^|[^a-z])"?sentiment"?\s*[:=]\s*"?([a-z]+)"?`)
	intentRe          = regexp.MustCompile(`(?i)"?intent"?\s*[:=]\s*"?([a-z]+)"?`)
	cryptoSentimentRe = regexp.MustCompile(`(?i)"?cryptoSentiment"?\s*[:=]\s*"?([a-z]+)"?`)

	topicsRe         = regexp.MustCompile(`(?is)"?topics"?\s*[:=]\s*\[(.*?)\]`)
	entitiesRe       = regexp.MustCompile(`(?is)"?entities"?\s*[:=]\s*\[(.*?)\]`)
	mentionedCoinsRe = regexp.MustCompile(`(?is)"?mentionedCoins"?\s*[:=]\s*\[(.*?)\]`)
	scamIndicatorsRe = regexp.MustCompile(`(?is)"?scamIndicators"?\s*[:=]\s*\[(.*?)\]`)

	priceTargetsRe = regexp.MustCompile(`(?is)"?priceTargets"?\s*[:=]\s*\{(.*?)\}`)

	quotedItemRe = regexp.MustCompile(`"([^"]*)"`)
	pairRe       = regexp.MustCompile(`"([^"]+)"\s*:\s*"([^"]*)"`)
)

func salvageAnalysis(content string) Analysis {
	a := Degraded()

	if m := sentimentRe.FindStringSubmatch(content); m != nil {
		a.Sentiment = ParseSentiment(m[1])
	}
	if m := intentRe.FindStringSubmatch(content); m != nil {
		a.Intent = ParseIntent(m[1])
	}
	if m := cryptoSentimentRe.FindStringSubmatch(content); m != nil {
		a.CryptoSentiment = ParseCryptoSentiment(m[1])
	}

	a.Topics = salvageList(topicsRe, content)
	a.Entities = salvageList(entitiesRe, content)
	a.MentionedCoins = salvageList(mentionedCoinsRe, content)
	a.ScamIndicators = salvageList(scamIndicatorsRe, content)

	if m := priceTargetsRe.FindStringSubmatch(content); m != nil {
		for _, pair := range pairRe.FindAllStringSubmatch(m[1], -1) {
			a.PriceTargets[pair[1]] = pair[2]
		}
	}

	return a
}

func salvageList(re *regexp.Regexp, content string) []string {
	m := re.FindStringSubmatch(content)
	if m == nil {
		return []string{}
	}
	items := quotedItemRe.FindAllStringSubmatch(m[1], -1)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item[1] != "" {
			out = append(out, item[1])
		}
	}
	return out
}
