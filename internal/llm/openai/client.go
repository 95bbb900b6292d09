package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"docchat-backend/internal/llm"
	"docchat-backend/internal/shared/telemetry"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 120 * time.Second
)

// Config describes how to reach a chat-completions endpoint.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration

	// MaxContextChars caps the document text sent per question. <= 0 sends everything.
	MaxContextChars int
	// NoTemperatureModels lists models that reject temperature=0.
	NoTemperatureModels []string

	// OAuth enables client-credentials auth for gateways that front the API.
	OAuth *clientcredentials.Config
}

// APIError is a non-success answer from the provider.
type APIError = sdk.Error

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	api         sdk.Client
	model       string
	maxContext  int
	noTempModel map[string]struct{}
}

// NewClient constructs a new OpenAI client.
func NewClient(cfg Config) (*Client, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	useOAuth := cfg.OAuth != nil && strings.TrimSpace(cfg.OAuth.TokenURL) != ""
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" && !useOAuth {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	httpClient := &http.Client{Timeout: timeout}
	if useOAuth {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: timeout})
		httpClient = cfg.OAuth.Client(ctx)
		httpClient.Timeout = timeout
	}

	opts := []option.RequestOption{
		option.WithBaseURL(baseURL + "/"),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	noTemp := make(map[string]struct{}, len(cfg.NoTemperatureModels))
	for _, m := range cfg.NoTemperatureModels {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			noTemp[m] = struct{}{}
		}
	}

	return &Client{
		api:         sdk.NewClient(opts...),
		model:       model,
		maxContext:  cfg.MaxContextChars,
		noTempModel: noTemp,
	}, nil
}

// Answer sends the document text and question and returns the reply unmodified.
func (c *Client) Answer(ctx context.Context, input llm.AnswerInput) (string, error) {
	messages := BuildPrompt(input, c.maxContext)
	promptHash := hashPromptString(promptStringFromMessages(messages))

	withTemp := !c.skipTemperature()
	resp, err := c.complete(ctx, messages, withTemp)
	if err != nil && withTemp && isTemperatureError(err) {
		telemetry.Warn("llm.retry_without_temperature", map[string]any{"model": c.model})
		resp, err = c.complete(ctx, messages, false)
	}
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai response missing choices")
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("openai response empty content")
	}
	telemetry.Info("llm.response", map[string]any{
		"model":             c.model,
		"prompt_hash":       promptHash,
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
		"total_tokens":      resp.Usage.TotalTokens,
	})
	return content, nil
}

func (c *Client) complete(ctx context.Context, messages []Message, withTemp bool) (*sdk.ChatCompletion, error) {
	params := sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(c.model),
		Messages: toParams(messages),
	}
	if withTemp {
		params.Temperature = sdk.Float(0)
	}
	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return nil, fmt.Errorf("openai request timeout: %w", err)
		}
		return nil, err
	}
	return resp, nil
}

func toParams(messages []Message) []sdk.ChatCompletionMessageParamUnion {
	out := make([]sdk.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			out = append(out, sdk.SystemMessage(m.Content))
		case "assistant":
			out = append(out, sdk.AssistantMessage(m.Content))
		default:
			out = append(out, sdk.UserMessage(m.Content))
		}
	}
	return out
}

func (c *Client) skipTemperature() bool {
	if isGPT5(c.model) {
		return true
	}
	_, ok := c.noTempModel[strings.ToLower(c.model)]
	return ok
}

func isTemperatureError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return strings.Contains(strings.ToLower(apiErr.Message+" "+apiErr.Error()), "temperature")
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

var _ llm.Client = (*Client)(nil)
