package tibia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrCharacterNotFound — персонаж с таким именем не существует в игре.
var ErrCharacterNotFound = errors.New("tibia character not found")

// Character — публичные данные персонажа из TibiaData API.
type Character struct {
	Name     string `json:"name"`
	World    string `json:"world"`
	Vocation string `json:"vocation"`
	Level    int    `json:"level"`
}

// characterResponse повторяет структуру ответа TibiaData API v4,
// нам нужны только эти поля.
type characterResponse struct {
	Character struct {
		Character Character `json:"character"`
	} `json:"character"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// ValidateCharacter запрашивает персонажа по имени у TibiaData API.
// Возвращает ErrCharacterNotFound, если персонаж не существует.
func (c *Client) ValidateCharacter(ctx context.Context, name string) (*Character, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrCharacterNotFound
	}

	endpoint := fmt.Sprintf("%s/v4/character/%s", c.baseURL, url.PathEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("tibia: failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tibia: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrCharacterNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tibia: unexpected status %d for character %q", resp.StatusCode, name)
	}

	var payload characterResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("tibia: failed to decode response: %w", err)
	}

	character := payload.Character.Character
	// API отвечает 200 с пустым персонажем, если имя не найдено.
	if character.Name == "" {
		return nil, ErrCharacterNotFound
	}
	return &character, nil
}
