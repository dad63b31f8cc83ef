package services

import (
	"context"
	"fmt"

	"github.com/justsurfingit/jobboard/internal/apperrors"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	defaultGeminiModel = "gemini-2.5-flash"
	defaultOpenAIModel = "gpt-4o-mini"
)

type LLMService struct {
	Client llms.Model
}

type LLMOptions struct {
	Provider     string
	Model        string
	GeminiAPIKey string
	OpenAIAPIKey string
}

// NewLLMService builds the chat client for the configured provider.
// A missing API key is reported as UNAVAILABLE so callers can run without AI search.
func NewLLMService(ctx context.Context, opts LLMOptions) (*LLMService, error) {
	var (
		llm llms.Model
		err error
	)
	switch opts.Provider {
	case "", "googleai", "gemini":
		if opts.GeminiAPIKey == "" {
			return nil, apperrors.Unavailable("GEMINI_API_KEY is not set", nil)
		}
		model := opts.Model
		if model == "" {
			model = defaultGeminiModel
		}
		llm, err = googleai.New(ctx,
			googleai.WithAPIKey(opts.GeminiAPIKey),
			googleai.WithDefaultModel(model),
		)
	case "openai":
		if opts.OpenAIAPIKey == "" {
			return nil, apperrors.Unavailable("OPENAI_API_KEY is not set", nil)
		}
		model := opts.Model
		if model == "" {
			model = defaultOpenAIModel
		}
		llm, err = openai.New(
			openai.WithToken(opts.OpenAIAPIKey),
			openai.WithModel(model),
		)
	default:
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown LLM provider %q", opts.Provider), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", opts.Provider, err)
	}

	return &LLMService{Client: llm}, nil
}

// Complete sends one prompt and returns the model's text answer.
func (s *LLMService) Complete(ctx context.Context, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, s.Client, prompt, llms.WithTemperature(0))
}
