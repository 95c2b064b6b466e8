package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Directory — клиент справочника пользователей Identity-сервиса.
//
// Движок авторизацией не занимается (это забота Identity/RBAC);
// справочник нужен только dashboard-проекции, чтобы показать имена
// назначенных исполнителей. Недоступность справочника деградирует
// до пустых имён и не валит запрос.
type Directory struct {
	baseURL    string
	httpClient *http.Client
}

// NewDirectory создаёт клиент справочника.
func NewDirectory(baseURL string) *Directory {
	return &Directory{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// BaseURLFromEnv возвращает адрес Identity-сервиса из окружения.
func BaseURLFromEnv() string {
	if v := os.Getenv("IDENTITY_URL"); v != "" {
		return v
	}
	return "http://localhost:9091"
}

// user — запись справочника.
type user struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
}

// LookupNames возвращает отображаемые имена для набора user ID.
// Неизвестные ID в ответе отсутствуют.
func (d *Directory) LookupNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]string{}, nil
	}

	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}
	params := url.Values{}
	params.Set("ids", strings.Join(strIDs, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/api/v1/users?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create directory request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory: HTTP %d", resp.StatusCode)
	}

	var users []user
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, fmt.Errorf("decode directory response: %w", err)
	}

	names := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.DisplayName
	}
	return names, nil
}
