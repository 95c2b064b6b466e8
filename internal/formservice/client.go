package formservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
)

// Client — HTTP-клиент внешнего Form Service.
//
// Движок не рендерит и не валидирует формы: он только запрашивает
// сессию заполнения при start и принимает callback об отправке.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент Form Service.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// BaseURLFromEnv возвращает адрес Form Service из окружения.
func BaseURLFromEnv() string {
	if v := os.Getenv("FORM_SERVICE_URL"); v != "" {
		return v
	}
	return "http://localhost:9090"
}

// IssueSessionRequest — запрос на выдачу сессии заполнения формы.
type IssueSessionRequest struct {
	ItemID uuid.UUID `json:"workflow_item_id"`
	RunID  uuid.UUID `json:"workflow_run_id"`
	FormID uuid.UUID `json:"form_id"`
	Actor  uuid.UUID `json:"actor_id"`
}

// Session — выданная сессия заполнения.
// Handle сохраняется на item: повторный start возвращает его же.
type Session struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// IssueSession запрашивает у Form Service сессию заполнения формы.
func (c *Client) IssueSession(ctx context.Context, req IssueSessionRequest) (*Session, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal session request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/sessions", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create session request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("form service request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("form service: HTTP %d", resp.StatusCode)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode session response: %w", err)
	}
	if session.ID == "" {
		return nil, fmt.Errorf("form service returned session without id")
	}
	return &session, nil
}
