package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"gpt-helper/config"
	"gpt-helper/history"
)

const (
	defaultBaseURL     = "https://generativelanguage.googleapis.com/v1"
	defaultListBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	systemPreamble = "You are a helpful assistant."

	// The listing endpoint returns fully qualified names ("models/...").
	modelNamePrefix = "models/"
)

// Client talks to the generateContent endpoint. One network call per
// invocation, no retry, no streaming; the transport's own timeout applies.
type Client struct {
	baseURL     string
	listBaseURL string
	httpClient  *http.Client
}

// New creates a Client. A non-empty baseURL overrides both the generation
// and model-listing endpoints (used by tests and local proxies).
func New(baseURL string) *Client {
	c := &Client{
		baseURL:     defaultBaseURL,
		listBaseURL: defaultListBaseURL,
		httpClient:  http.DefaultClient,
	}
	if baseURL != "" {
		baseURL = strings.TrimSuffix(baseURL, "/")
		c.baseURL = baseURL
		c.listBaseURL = baseURL
	}
	return c
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *Client) SetHTTPClient(hc *http.Client) { c.httpClient = hc }

// ConverseContext carries the selection and first response a chat session
// was started from, so follow-ups stay anchored to them.
type ConverseContext struct {
	OriginalText  string
	PriorResponse string
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
	Error      *apiError   `json:"error"`
}

type candidate struct {
	Content content `json:"content"`
}

type apiError struct {
	Message string `json:"message"`
}

type modelsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Generate applies an instruction to a piece of selected text and returns
// the generated reply.
func (c *Client) Generate(ctx context.Context, instruction, input string, settings config.Settings) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", &ValidationError{Reason: "no text selected"}
	}
	if err := validateSettings(settings); err != nil {
		return "", err
	}
	payload := fmt.Sprintf("%s\n\nInput: %s", instruction, input)
	return c.generateContent(ctx, payload, settings)
}

// Converse continues a chat: the payload is the system preamble, the
// original selection and first response when present, every buffered turn
// as "<role>: <content>", and finally the new user message, joined with
// blank lines.
func (c *Client) Converse(ctx context.Context, turns []history.Turn, message string, cc ConverseContext, settings config.Settings) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", &ValidationError{Reason: "empty message"}
	}
	if err := validateSettings(settings); err != nil {
		return "", err
	}

	parts := []string{systemPreamble}
	if cc.OriginalText != "" {
		parts = append(parts, fmt.Sprintf("Original text: %q", cc.OriginalText))
	}
	if cc.PriorResponse != "" {
		parts = append(parts, "Previous response: "+cc.PriorResponse)
	}
	for _, t := range turns {
		parts = append(parts, fmt.Sprintf("%s: %s", t.Role, t.Content))
	}
	parts = append(parts, "user: "+message)

	return c.generateContent(ctx, strings.Join(parts, "\n\n"), settings)
}

// ListModels fetches the available model names, stripping the "models/"
// namespace prefix for presentation.
func (c *Client) ListModels(ctx context.Context, settings config.Settings) ([]string, error) {
	if settings.APIKey == "" {
		return nil, &ValidationError{Reason: "API key is not configured"}
	}

	endpoint := fmt.Sprintf("%s/models?key=%s", c.listBaseURL, url.QueryEscape(settings.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	var body modelsResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProtocolError{StatusCode: resp.StatusCode, Message: "failed to fetch models"}
	}
	if decodeErr != nil {
		return nil, &ProtocolError{StatusCode: resp.StatusCode, Message: "malformed model list response", Malformed: true}
	}

	names := make([]string, 0, len(body.Models))
	for _, m := range body.Models {
		names = append(names, strings.TrimPrefix(m.Name, modelNamePrefix))
	}
	return names, nil
}

func validateSettings(settings config.Settings) error {
	if settings.APIKey == "" {
		return &ValidationError{Reason: "API key is not configured"}
	}
	if settings.SelectedModel == "" {
		return &ValidationError{Reason: "no model selected"}
	}
	return nil
}

// generateContent performs the single POST and maps the response into the
// error taxonomy.
func (c *Client) generateContent(ctx context.Context, text string, settings config.Settings) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: text}}}},
	})
	if err != nil {
		return "", &TransportError{Err: err}
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(settings.SelectedModel), url.QueryEscape(settings.APIKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	var result generateResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&result)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := "API request failed"
		if decodeErr == nil && result.Error != nil && result.Error.Message != "" {
			msg = result.Error.Message
		}
		return "", &ProtocolError{StatusCode: resp.StatusCode, Message: msg}
	}

	if decodeErr != nil || len(result.Candidates) == 0 ||
		len(result.Candidates[0].Content.Parts) == 0 {
		return "", &ProtocolError{
			StatusCode: resp.StatusCode,
			Message:    "malformed response: missing generated text",
			Malformed:  true,
		}
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}
