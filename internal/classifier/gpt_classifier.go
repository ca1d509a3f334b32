package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

type GPTClassifier struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
	maxTags     int
	fallback    Suggester
	logger      *zap.Logger
}

func NewGPTClassifier(apiKey, model string, maxTokens int, temperature float64, maxTags int, logger *zap.Logger) *GPTClassifier {
	return newGPTClassifier(openai.DefaultConfig(apiKey), model, maxTokens, temperature, maxTags, logger)
}

func newGPTClassifier(cfg openai.ClientConfig, model string, maxTokens int, temperature float64, maxTags int, logger *zap.Logger) *GPTClassifier {
	return &GPTClassifier{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		maxTags:     maxTags,
		fallback:    NewSimpleClassifier(maxTags),
		logger:      logger,
	}
}

func (c *GPTClassifier) prompt(title, link string) string {
	return fmt.Sprintf(`Suggest at most %d short lowercase tags for a saved bookmark.
Return only a JSON array of strings, for example ["golang", "concurrency"].

Title: %s
Link: %s`, c.maxTags, title, link)
}

// Suggest asks the model for tags and falls back to keyword rules on any error.
func (c *GPTClassifier) Suggest(ctx context.Context, title, link string) []string {
	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: c.prompt(title, link),
				},
			},
			MaxTokens:   c.maxTokens,
			Temperature: float32(c.temperature),
		},
	)
	if err != nil {
		c.logger.Error("Failed to get GPT response", zap.Error(err))
		return c.fallback.Suggest(ctx, title, link)
	}
	if len(resp.Choices) == 0 {
		c.logger.Error("GPT response had no choices")
		return c.fallback.Suggest(ctx, title, link)
	}

	response := strings.TrimSpace(resp.Choices[0].Message.Content)
	response = strings.TrimSuffix(strings.TrimPrefix(response, "```json"), "```")

	var raw []string
	if err := json.Unmarshal([]byte(strings.TrimSpace(response)), &raw); err != nil {
		c.logger.Error("Failed to parse GPT response",
			zap.Error(err),
			zap.String("response", response))
		return c.fallback.Suggest(ctx, title, link)
	}

	tags := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, t := range raw {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}

	// Ensure we don't exceed maxTags
	if c.maxTags > 0 && len(tags) > c.maxTags {
		tags = tags[:c.maxTags]
	}
	return tags
}
