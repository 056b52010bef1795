package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/scriptforge-backend/internal/logger"
	"github.com/yungbote/scriptforge-backend/internal/utils"
)

// AIClient wraps the external generation service. Connection failures,
// timeouts and non-2xx responses all come back as plain errors with a
// readable cause; retry policy belongs to the caller.
type AIClient interface {
	Train(ctx context.Context, scriptID uuid.UUID, content string, metadata TrainMetadata) error
	Generate(ctx context.Context, prompt, outputType string, history []GenerateMessage) (string, error)
	Health(ctx context.Context) error
}

type TrainMetadata struct {
	Genre  string `json:"genre"`
	Year   *int   `json:"year"`
	Author string `json:"author"`
}

type GenerateMessage struct {
	Role    string `json:"type"`
	Content string `json:"content"`
}

type aiClient struct {
	httpClient *http.Client
	log        *logger.Logger
	baseURL    string
}

func NewAIClient(log *logger.Logger) (AIClient, error) {
	serviceLog := log.With("service", "AIClient")
	baseURL := strings.TrimRight(utils.GetEnv("AI_SERVICE_URL", "http://localhost:5000", log), "/")
	timeoutSec := utils.GetEnvAsInt("AI_SERVICE_TIMEOUT_SECONDS", 30, log)
	return &aiClient{
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		log:        serviceLog,
		baseURL:    baseURL,
	}, nil
}

type trainRequest struct {
	ScriptID string        `json:"scriptId"`
	Content  string        `json:"content"`
	Metadata TrainMetadata `json:"metadata"`
}

func (c *aiClient) Train(ctx context.Context, scriptID uuid.UUID, content string, metadata TrainMetadata) error {
	body := trainRequest{
		ScriptID: scriptID.String(),
		Content:  content,
		Metadata: metadata,
	}
	return c.post(ctx, "/train", body, nil)
}

type generateRequest struct {
	Prompt              string            `json:"prompt"`
	OutputType          string            `json:"outputType"`
	ConversationHistory []GenerateMessage `json:"conversationHistory"`
}

type generateResponse struct {
	Content string `json:"content"`
}

func (c *aiClient) Generate(ctx context.Context, prompt, outputType string, history []GenerateMessage) (string, error) {
	body := generateRequest{
		Prompt:              prompt,
		OutputType:          outputType,
		ConversationHistory: history,
	}
	var resp generateResponse
	if err := c.post(ctx, "/generate", body, &resp); err != nil {
		return "", err
	}
	if resp.Content == "" {
		return "", fmt.Errorf("generation service returned empty content")
	}
	return resp.Content, nil
}

func (c *aiClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("generation service unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("generation service unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func (c *aiClient) post(ctx context.Context, path string, body any, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("generation service call %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("generation service call %s failed: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return nil
}
