package llm

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

var (
	codecOnce sync.Once
	codec     tokenizer.Codec
)

// CountTokens approximates the token count of text with the GPT-4 encoding. Claude uses a
// different tokenizer; the estimate is only used when a provider reports no usage.
func CountTokens(text string) int {
	codecOnce.Do(func() {
		c, err := tokenizer.ForModel(tokenizer.GPT4)
		if err == nil {
			codec = c
		}
	})
	if codec == nil {
		return len(text) / 4
	}
	count, err := codec.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return count
}

// EstimateUsage fills a Usage for a prompt/response pair.
func EstimateUsage(prompt, completion string) Usage {
	return Usage{
		PromptTokens:     CountTokens(prompt),
		CompletionTokens: CountTokens(completion),
	}
}

// usageOrEstimate keeps provider-reported usage and estimates it when the provider reported none.
func usageOrEstimate(reported Usage, prompt, completion string) Usage {
	if reported.PromptTokens+reported.CompletionTokens > 0 {
		return reported
	}
	return EstimateUsage(prompt, completion)
}
