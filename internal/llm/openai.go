package llm

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

// OpenAIClient uses the Responses API with a single string input.
type OpenAIClient struct {
	client openai.Client
	model  string
}

func NewOpenAI(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(option.WithAPIKey(apiKey), option.WithMaxRetries(0)),
		model:  model,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt string, params Params) (*Completion, error) {
	model := params.Model
	if model == "" {
		model = c.model
	}

	resp, err := c.client.Responses.New(ctx, responses.ResponseNewParams{
		Model:           model,
		MaxOutputTokens: openai.Int(int64(params.MaxTokens)),
		Temperature:     openai.Float(params.Temperature),
		Input:           responses.ResponseNewParamsInputUnion{OfString: openai.String(prompt)},
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, ClassifyStatus(apiErr.StatusCode, "openai request failed", err)
		}
		return nil, ClassifyStatus(statusFromText(err.Error()), "openai request failed", err)
	}

	text := resp.OutputText()
	if text == "" {
		return nil, ClassifyStatus(0, "openai returned an empty response", nil)
	}
	return &Completion{
		Text: text,
		Usage: usageOrEstimate(Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
		}, prompt, text),
	}, nil
}
