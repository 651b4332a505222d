// Package evaluation implements the outbound call to the AI completion
// service: prompt construction, the chat-completions request, and response
// parsing. The client is stateless; endpoint and credential are fixed at
// construction and read-only afterwards.
package evaluation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/monkeyandriver/healthforge/internal/common"
	"github.com/monkeyandriver/healthforge/internal/logging"
	"github.com/monkeyandriver/healthforge/internal/server/config"
	"github.com/monkeyandriver/healthforge/internal/server/models"
)

// PromptContext selects the system instruction sent with a prompt.
const (
	ContextHealth  = "health"
	ContextGeneral = "general"
)

const (
	completionPath = "/openai/v1/chat/completions"
	userAgent      = "HealthForge/1.0"

	temperature = 0.7
	maxTokens   = 1500
	topP        = 1

	// Returned when the upstream reports success but the first choice has no
	// content. A deliberate default, not an error path.
	emptyContentPlaceholder = "No response content available"
)

const healthSystemMessage = "You are an expert medical assistant. Provide clear, concise health advice " +
	"based on the patient information. Include:\n" +
	"1. Risk factor analysis\n" +
	"2. Recommended follow-up actions\n" +
	"3. Lifestyle recommendations\n" +
	"4. Any urgent concerns\n\n" +
	"Use professional but understandable language. Do not provide definitive diagnoses."

const generalSystemMessage = "You are a helpful assistant. Provide clear, concise information."

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	TopP        int           `json:"top_p"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client calls the AI completion service over an authenticated channel.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     logging.Logger
}

// NewClient builds the evaluation client from configuration. A missing API
// key is a fatal configuration error raised here, not at call time.
func NewClient(cfg *config.Config, logger logging.Logger) (*Client, error) {
	if cfg.AIAPIKey == "" {
		return nil, fmt.Errorf("%w: AI API key is not configured", common.ErrConfiguration)
	}

	return &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(cfg.AIBaseURL, "/"),
		apiKey:     cfg.AIAPIKey,
		model:      cfg.AIModel,
		logger:     logger,
	}, nil
}

// EvaluateHealth builds the health prompt for the questionnaire and requests
// an evaluation with the health system instruction.
func (c *Client) EvaluateHealth(ctx context.Context, q *models.Questionnaire, additionalNotes string) (string, error) {
	prompt := BuildHealthPrompt(q, additionalNotes)
	return c.Evaluate(ctx, prompt, ContextHealth)
}

// Evaluate sends one chat-completion request and returns the narrative text
// of the first choice.
//
// Failure shapes: a non-success upstream response yields *UpstreamError with
// the status code; a success response without choices yields
// ErrMalformedResponse; any other transport or parse failure is wrapped into
// *ProcessingError.
func (c *Client) Evaluate(ctx context.Context, prompt string, promptContext string) (string, error) {
	systemMessage := generalSystemMessage
	if promptContext == ContextHealth {
		systemMessage = healthSystemMessage
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemMessage},
			{Role: "user", Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
		TopP:        topP,
		Stream:      false,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", &ProcessingError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionPath, bytes.NewReader(payload))
	if err != nil {
		return "", &ProcessingError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug(ctx, "sending request to AI service", "model", c.model, "context", promptContext)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &ProcessingError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProcessingError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error(ctx, "AI service request failed", "status", resp.StatusCode, "body", string(body))
		return "", &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.logger.Error(ctx, "error parsing AI service response", "error", err.Error())
		return "", &ProcessingError{Err: err}
	}

	if len(parsed.Choices) == 0 {
		return "", ErrMalformedResponse
	}

	content := parsed.Choices[0].Message.Content
	if content == "" {
		return emptyContentPlaceholder, nil
	}

	return content, nil
}
