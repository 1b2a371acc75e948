package analyzer

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// geminiBackend is the alternate analysis backend, selected with
// ANALYZER_PROVIDER=gemini. It requests structured JSON via a response
// schema instead of relying on prompt discipline alone.
type geminiBackend struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

var analysisSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"sentiment":       {Type: genai.TypeString, Description: "One of: positive, negative, neutral."},
		"topics":          {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"entities":        {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"intent":          {Type: genai.TypeString, Description: "One of: question, statement, command, greeting, opinion, recommendation, other."},
		"cryptoSentiment": {Type: genai.TypeString, Description: "One of: bullish, bearish, neutral."},
		"mentionedCoins":  {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"scamIndicators":  {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
	Required: []string{"sentiment", "topics", "intent", "cryptoSentiment", "mentionedCoins", "scamIndicators"},
}

func newGeminiBackend(ctx context.Context, cfg Config) (*geminiBackend, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}

	temperature := cfg.Temperature
	genCfg := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "application/json",
		ResponseSchema:   analysisSchema,
	}
	if cfg.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(cfg.MaxTokens)
	}

	return &geminiBackend{client: client, model: model, config: genCfg}, nil
}

func (b *geminiBackend) name() string { return "gemini" }

func (b *geminiBackend) complete(ctx context.Context, systemPrompt, text string) (string, error) {
	cfg := *b.config
	cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}}

	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	resp, err := b.client.Models.GenerateContent(ctx, b.model, contents, &cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("generate content returned no candidates")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
