package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/fableterm/fableterm/pkg/game"
	"github.com/fableterm/fableterm/pkg/state"
)

// ErrorResponse is the error envelope returned by the backend.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// StartGameRequest begins a session for a previously generated game.
type StartGameRequest struct {
	GameID string `json:"game_id"`
}

// GamePromptRequest submits a free-text player action in the main
// narrative loop.
type GamePromptRequest struct {
	Prompt string `json:"prompt"`
}

// CharacterPromptRequest drives an open character interaction. Exactly
// one of the three fields should be set.
type CharacterPromptRequest struct {
	Message         string `json:"message,omitempty"`
	TradeAccept     *bool  `json:"trade_accept,omitempty"`
	EndConversation bool   `json:"end_conversation,omitempty"`
}

// GameStateResponse wraps the full replacement state returned by every
// in-session call.
type GameStateResponse struct {
	GameState *state.GameState `json:"game_state"`
}

// ContentSetting controls how permissive generated text and images are.
type ContentSetting string

const (
	ContentMinimum  ContentSetting = "minimum"
	ContentModerate ContentSetting = "moderate"
	ContentHigh     ContentSetting = "high"
)

// CreateGameRequest asks the backend to generate a new game.
// ResumePrevious names an incomplete generation directory to resume
// from instead of starting over.
type CreateGameRequest struct {
	Prompt              string         `json:"prompt"`
	TextContentSetting  ContentSetting `json:"text_content_setting,omitempty"`
	ImageContentSetting ContentSetting `json:"image_content_setting,omitempty"`
	TemperatureSetting  string         `json:"temperature_setting,omitempty"`
	ResumePrevious      string         `json:"resume_previous,omitempty"`
}

// CreateGameResponse carries the generated game definition.
type CreateGameResponse struct {
	Game         *game.Game `json:"game,omitempty"`
	Error        string     `json:"error,omitempty"`
	Message      string     `json:"message,omitempty"`
	CheckpointID string     `json:"checkpoint_id,omitempty"`
}

// SetupRequest configures the backend before first use.
type SetupRequest struct {
	OpenAIKey string `json:"openai_api_key,omitempty"`
}

// Client is the single point of contact with the game-logic backend.
// All player intents go through one of its typed calls; asynchronous
// state pushes arrive through Listen.
type Client struct {
	baseURL string
	http    *http.Client
	// stream has no client-side timeout: the event subscription stays
	// open for the life of the program and is bounded by context only.
	stream *http.Client
	logger *slog.Logger
}

// NewClient returns a gateway for the backend at baseURL.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		stream:  &http.Client{Transport: httpClient.Transport},
		logger:  logger,
	}
}

// Health reports whether the backend is reachable.
func (c *Client) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// StartGame begins a session and returns the initial game state.
func (c *Client) StartGame(ctx context.Context, gameID string) (*state.GameState, error) {
	return c.gameStateCall(ctx, "/v1/game/start", StartGameRequest{GameID: gameID})
}

// GamePrompt submits a narrative action and returns the updated state.
func (c *Client) GamePrompt(ctx context.Context, prompt string) (*state.GameState, error) {
	return c.gameStateCall(ctx, "/v1/game/prompt", GamePromptRequest{Prompt: prompt})
}

// CharacterPrompt drives the open character interaction and returns the
// updated state.
func (c *Client) CharacterPrompt(ctx context.Context, req CharacterPromptRequest) (*state.GameState, error) {
	return c.gameStateCall(ctx, "/v1/character/prompt", req)
}

// EndGame notifies the backend that the session is over. Callers treat
// this as best-effort: local state is cleared whether or not the
// backend acknowledges.
func (c *Client) EndGame(ctx context.Context) error {
	body, status, err := c.post(ctx, "/v1/game/end", struct{}{})
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return decodeError(status, body)
	}
	return nil
}

// CreateNewGame asks the backend to generate a game from a prompt.
// Generation can take minutes; progress arrives as "updates" events on
// the event stream. A failed generation returns *GenerationError with
// the checkpoint to resume from.
func (c *Client) CreateNewGame(ctx context.Context, req CreateGameRequest) (*game.Game, error) {
	body, status, err := c.post(ctx, "/v1/games", req)
	if err != nil {
		return nil, err
	}

	var createResp CreateGameResponse
	if status != http.StatusOK && status != http.StatusCreated {
		if err := json.Unmarshal(body, &createResp); err != nil || createResp.Error == "" {
			return nil, decodeError(status, body)
		}
		if createResp.Error == "setup_error" {
			return nil, setupError(createResp.Message)
		}
		return nil, &GenerationError{Message: createResp.Message, CheckpointID: createResp.CheckpointID}
	}

	if err := json.Unmarshal(body, &createResp); err != nil {
		return nil, fmt.Errorf("failed to parse create game response: %w", err)
	}
	if createResp.Game == nil {
		return nil, &RejectedError{Reason: "response contained no game"}
	}
	return createResp.Game, nil
}

// Setup configures the backend with an OpenAI API key. The returned
// error is one of the setup sentinels when the backend names a cause.
func (c *Client) Setup(ctx context.Context, req SetupRequest) error {
	body, status, err := c.post(ctx, "/v1/setup", req)
	if err != nil {
		return err
	}
	if status == http.StatusOK || status == http.StatusNoContent {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return decodeError(status, body)
	}
	return setupError(errResp.Error)
}

func setupError(code string) error {
	switch code {
	case "missing_openai_key":
		return ErrMissingKey
	case "bad_openai_key":
		return ErrBadKey
	case "connection_failed":
		return ErrConnectionFailed
	case "file_system_error":
		return ErrFileSystem
	default:
		return &RejectedError{Reason: code}
	}
}

// gameStateCall posts a request whose response is a full GameState
// replacement.
func (c *Client) gameStateCall(ctx context.Context, path string, payload any) (*state.GameState, error) {
	body, status, err := c.post(ctx, path, payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, decodeError(status, body)
	}

	var gsResp GameStateResponse
	if err := json.Unmarshal(body, &gsResp); err != nil {
		return nil, fmt.Errorf("failed to parse game state response: %w", err)
	}
	if gsResp.GameState == nil {
		return nil, &RejectedError{Reason: "response contained no game state"}
	}
	return gsResp.GameState, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, int, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, transportError(err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// transportError folds connection-level failures into the gateway
// error taxonomy.
func transportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	return fmt.Errorf("%w: %v", ErrNotConnected, err)
}

// decodeError maps a non-2xx response body onto the error taxonomy.
func decodeError(status int, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return &RejectedError{Reason: fmt.Sprintf("status %d: %s", status, string(body))}
	}
	if errResp.Code == "session_not_started" {
		return ErrSessionNotStarted
	}
	return &RejectedError{Reason: errResp.Error}
}
