package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/spa-ledger/pkg/logging"
)

const defaultBaseURL = "https://api.telegram.org"

// Config controls how the Bot API client behaves.
type Config struct {
	Token      string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// Client wraps the Bot API methods the bot uses.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// APIError is a non-OK Bot API response.
type APIError struct {
	Method      string
	StatusCode  int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram: %s failed (%d): %s", e.Method, e.StatusCode, e.Description)
}

// NewClient creates a configured Client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram: bot token is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		token:      cfg.Token,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// SendMessage posts a new message and returns its id.
func (c *Client) SendMessage(ctx context.Context, msg OutgoingMessage) (int, error) {
	var result struct {
		MessageID int `json:"message_id"`
	}
	err := c.call(ctx, "sendMessage", sendMessageRequest{
		ChatID:      msg.ChatID,
		Text:        msg.Text,
		ParseMode:   msg.ParseMode,
		ReplyMarkup: msg.Markup,
	}, &result)
	if err != nil {
		return 0, err
	}
	return result.MessageID, nil
}

// EditMessageText replaces the text and keyboard of msg.MessageID.
func (c *Client) EditMessageText(ctx context.Context, msg OutgoingMessage) error {
	if msg.MessageID == 0 {
		return errors.New("telegram: message id is required to edit")
	}
	return c.call(ctx, "editMessageText", editMessageTextRequest{
		ChatID:      msg.ChatID,
		MessageID:   msg.MessageID,
		Text:        msg.Text,
		ParseMode:   msg.ParseMode,
		ReplyMarkup: msg.Markup,
	}, nil)
}

// AnswerCallbackQuery acknowledges a button tap, optionally with an alert.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string, alert bool) error {
	return c.call(ctx, "answerCallbackQuery", answerCallbackQueryRequest{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	}, nil)
}

func (c *Client) call(ctx context.Context, method string, payload any, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: marshal %s: %w", method, err)
	}
	url := c.baseURL + "/bot" + c.token + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("telegram: http error: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("telegram: read response: %w", err)
	}

	var envelope struct {
		apiResponse
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("telegram: decode %s response: %w", method, err)
	}
	if resp.StatusCode >= 300 || !envelope.OK {
		apiErr := &APIError{Method: method, StatusCode: resp.StatusCode, Description: envelope.Description}
		c.logger.Warn("telegram api error", "method", method, "status", resp.StatusCode, "description", envelope.Description)
		return apiErr
	}
	if result != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("telegram: decode %s result: %w", method, err)
		}
	}
	return nil
}
