package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/fableterm/fableterm/pkg/state"
)

// Event types pushed by the backend on the standing event stream.
const (
	EventTypeState   = "state"   // full GameState replacement
	EventTypeUpdates = "updates" // generation progress line
)

// Event is one server-sent event from the backend.
type Event struct {
	Type string
	Data json.RawMessage
}

// GameState decodes a state event payload.
func (e Event) GameState() (*state.GameState, error) {
	if e.Type != EventTypeState {
		return nil, fmt.Errorf("event type %q is not a state event", e.Type)
	}
	var gs state.GameState
	if err := json.Unmarshal(e.Data, &gs); err != nil {
		return nil, fmt.Errorf("failed to parse pushed game state: %w", err)
	}
	return &gs, nil
}

// Update is the payload of an updates event: one progress line from a
// running game generation, tagged with the request it belongs to.
type Update struct {
	RequestID uuid.UUID `json:"request_id"`
	Message   string    `json:"message"`
}

// Update decodes an updates event payload.
func (e Event) Update() (Update, error) {
	if e.Type != EventTypeUpdates {
		return Update{}, fmt.Errorf("event type %q is not an updates event", e.Type)
	}
	var u Update
	if err := json.Unmarshal(e.Data, &u); err != nil {
		return Update{}, fmt.Errorf("failed to parse update event: %w", err)
	}
	return u, nil
}

// Listen connects to the backend event stream and forwards events to
// eventChan until the context is cancelled or the stream closes.
// Callers own eventChan; Listen never closes it.
func (c *Client) Listen(ctx context.Context, eventChan chan<- Event) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/events", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.stream.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("event stream connection failed with status %d: %s", resp.StatusCode, string(body))
	}

	c.logger.Debug("Event stream connected", "url", req.URL.String())
	return readEvents(ctx, resp.Body, eventChan)
}

// readEvents parses the SSE wire format: "event:" and "data:" lines,
// with a blank line terminating each event.
func readEvents(ctx context.Context, r io.Reader, eventChan chan<- Event) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var current Event
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Text()
		if line == "" {
			// Empty line signals end of event
			if current.Type != "" {
				select {
				case eventChan <- current:
				case <-ctx.Done():
					return ctx.Err()
				}
				current = Event{}
			}
			continue
		}

		if strings.HasPrefix(line, "event: ") {
			current.Type = strings.TrimPrefix(line, "event: ")
		} else if strings.HasPrefix(line, "data: ") {
			current.Data = json.RawMessage(strings.TrimPrefix(line, "data: "))
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading event stream: %w", err)
	}
	return nil
}
