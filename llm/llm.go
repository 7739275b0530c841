// Package llm issues generation requests against the selected backend using
// that backend's wire protocol and normalizes all responses to plain text.
package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/bachner/popdraft/backend"
)

const (
	maxTokens        = 4096
	requestTimeout   = 120 * time.Second
	openAIHost       = "https://api.openai.com"
	anthropicHost    = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"

	// Models that emit a reasoning segment close it with this marker; only
	// text after the final marker is the answer.
	reasoningEndMarker = "</think>"
)

// Client sends generation requests. Local carries the terminal-fallback
// provider: any failure on a different provider retries once against it.
type Client struct {
	http  *http.Client
	local *backend.Config

	// Cloud hosts, overridable in tests.
	openAIHost    string
	anthropicHost string
}

// New builds a Client. local must be the local inference provider entry.
func New(local *backend.Config) *Client {
	return &Client{
		http:          &http.Client{Timeout: requestTimeout},
		local:         local,
		openAIHost:    openAIHost,
		anthropicHost: anthropicHost,
	}
}

// Generate runs one prompt against the given provider. If the provider is
// not the local server and the request fails for any reason, the request is
// retried exactly once against the local server before the original error
// class is surfaced. Failures on the local server itself propagate
// immediately; it is assumed always installed, making it the end of the
// fallback chain.
func (c *Client) Generate(cfg *backend.Config, prompt, system string) (string, error) {
	text, err := c.generateOnce(cfg, prompt, system)
	if err == nil {
		return text, nil
	}
	if cfg.Kind == backend.KindLocal {
		return "", err
	}

	log.Printf("LLM: %s failed (%v), retrying on local", cfg.Kind, err)
	text, retryErr := c.generateOnce(c.local, prompt, system)
	if retryErr != nil {
		log.Printf("LLM: local retry also failed: %v", retryErr)
		return "", err
	}
	return text, nil
}

func (c *Client) generateOnce(cfg *backend.Config, prompt, system string) (string, error) {
	started := time.Now()

	var (
		text string
		err  error
	)
	switch cfg.Kind {
	case backend.KindLocal:
		text, err = c.chatCompletions(cfg, cfg.BaseURL, "", prompt, system)
	case backend.KindOpenAI:
		text, err = c.chatCompletions(cfg, c.openAIHost, cfg.APIKey, prompt, system)
	case backend.KindOllama:
		text, err = c.ollamaGenerate(cfg, prompt, system)
	case backend.KindAnthropic:
		text, err = c.anthropicMessages(cfg, prompt, system)
	default:
		return "", fmt.Errorf("unknown backend kind %v", cfg.Kind)
	}
	if err != nil {
		return "", err
	}

	log.Printf("LLM: %s answered in %s (%d chars)", cfg.Kind, time.Since(started).Round(time.Millisecond), len(text))
	return stripReasoning(text), nil
}

// chatMessage is the role/content pair shared by the OpenAI-style protocols.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model,omitempty"`
	Messages  []chatMessage `json:"messages"`
	Stream    *bool         `json:"stream,omitempty"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// chatCompletions covers both the local OpenAI-compatible server (no model
// field needed, no auth) and the OpenAI cloud API (model + bearer token).
func (c *Client) chatCompletions(cfg *backend.Config, host, bearer, prompt, system string) (string, error) {
	var msgs []chatMessage
	if system != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: system})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: prompt})

	// The local server needs an explicit stream:false; the cloud API defaults
	// to non-streaming and the field stays off the wire there.
	reqBody := chatRequest{Messages: msgs, MaxTokens: maxTokens}
	if cfg.Kind == backend.KindLocal {
		noStream := false
		reqBody.Stream = &noStream
	} else {
		reqBody.Model = cfg.Model
	}

	headers := map[string]string{}
	if bearer != "" {
		headers["Authorization"] = "Bearer " + bearer
	}

	body, err := c.post(cfg, host+"/v1/chat/completions", reqBody, headers)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &MalformedResponse{Backend: cfg.Kind.String(), Reason: err.Error()}
	}
	if parsed.Error != nil {
		return "", &ProviderError{Backend: cfg.Kind.String(), Message: parsed.Error.Message}
	}
	if len(parsed.Choices) == 0 {
		return "", &MalformedResponse{Backend: cfg.Kind.String(), Reason: "no choices in response"}
	}
	return parsed.Choices[0].Message.Content, nil
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

func (c *Client) ollamaGenerate(cfg *backend.Config, prompt, system string) (string, error) {
	reqBody := ollamaRequest{Model: cfg.Model, Prompt: prompt, System: system, Stream: false}

	body, err := c.post(cfg, cfg.BaseURL+"/api/generate", reqBody, nil)
	if err != nil {
		return "", err
	}

	var parsed ollamaResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &MalformedResponse{Backend: cfg.Kind.String(), Reason: err.Error()}
	}
	if parsed.Error != "" {
		return "", &ProviderError{Backend: cfg.Kind.String(), Message: parsed.Error}
	}
	if parsed.Response == "" {
		return "", &MalformedResponse{Backend: cfg.Kind.String(), Reason: "empty response field"}
	}
	return parsed.Response, nil
}

type anthropicRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
	System    string        `json:"system,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Error *apiError `json:"error,omitempty"`
}

func (c *Client) anthropicMessages(cfg *backend.Config, prompt, system string) (string, error) {
	reqBody := anthropicRequest{
		Model:     cfg.Model,
		MaxTokens: maxTokens,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		System:    system,
	}
	headers := map[string]string{
		"x-api-key":         cfg.APIKey,
		"anthropic-version": anthropicVersion,
	}

	body, err := c.post(cfg, c.anthropicHost+"/v1/messages", reqBody, headers)
	if err != nil {
		return "", err
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &MalformedResponse{Backend: cfg.Kind.String(), Reason: err.Error()}
	}
	if parsed.Error != nil {
		return "", &ProviderError{Backend: cfg.Kind.String(), Message: parsed.Error.Message}
	}
	if len(parsed.Content) == 0 || parsed.Content[0].Text == "" {
		return "", &MalformedResponse{Backend: cfg.Kind.String(), Reason: "no content blocks in response"}
	}
	return parsed.Content[0].Text, nil
}

// post marshals payload, issues the request and returns the body for 2xx
// responses. Non-2xx statuses become ProviderError, with the body's error
// message extracted when the payload carries one.
func (c *Client) post(cfg *backend.Config, url string, payload any, headers map[string]string) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, &NetworkError{Backend: cfg.Kind.String(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Backend: cfg.Kind.String(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Backend: cfg.Kind.String(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProviderError{
			Backend: cfg.Kind.String(),
			Status:  resp.StatusCode,
			Message: extractErrorMessage(body),
		}
	}
	return body, nil
}

// extractErrorMessage pulls a human-readable message out of an error payload
// regardless of which of the provider shapes it follows.
func extractErrorMessage(body []byte) string {
	var openAIStyle struct {
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &openAIStyle); err == nil && openAIStyle.Error != nil && openAIStyle.Error.Message != "" {
		return openAIStyle.Error.Message
	}
	var ollamaStyle struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &ollamaStyle); err == nil && ollamaStyle.Error != "" {
		return ollamaStyle.Error
	}
	return ""
}

// stripReasoning discards a model's reasoning segment: everything up to and
// including the final end marker. Text without a marker passes through
// unmodified. Applied uniformly across backends.
func stripReasoning(text string) string {
	idx := strings.LastIndex(text, reasoningEndMarker)
	if idx < 0 {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(text[idx+len(reasoningEndMarker):])
}
