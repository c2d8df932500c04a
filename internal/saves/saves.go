// Package saves reads the saved-game directory layout maintained by
// the backend. Each game lives in its own directory: a complete game
// has a game.json; a generation that died partway leaves a tmp
// subdirectory behind instead, and can be resumed.
package saves

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fableterm/fableterm/pkg/game"
)

const (
	gameFileName = "game.json"
	tmpDirName   = "tmp"
)

// SavedGame is a complete game on disk.
type SavedGame struct {
	Game *game.Game
	Dir  string
}

// Incomplete is a resumable in-progress generation.
type Incomplete struct {
	Name string
	Dir  string
}

// Scanner walks a saves root for complete and incomplete games.
type Scanner struct {
	root   string
	logger *slog.Logger
}

// NewScanner returns a scanner over root.
func NewScanner(root string, logger *slog.Logger) *Scanner {
	return &Scanner{root: root, logger: logger}
}

// Scan lists complete saved games and the first incomplete generation
// found, if any. Directories that are neither are skipped, as are
// entries that fail to decode; a corrupt save must not block the menu.
func (s *Scanner) Scan() ([]SavedGame, *Incomplete, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to read saves directory: %w", err)
	}

	var games []SavedGame
	var incomplete *Incomplete

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(s.root, entry.Name())
		gamePath := filepath.Join(dir, gameFileName)

		if _, err := os.Stat(gamePath); err == nil {
			g, err := loadGame(gamePath)
			if err != nil {
				s.logger.Warn("Skipping unreadable saved game", "dir", dir, "error", err)
				continue
			}
			games = append(games, SavedGame{Game: g, Dir: dir})
			continue
		}

		// No game.json: a tmp subdirectory marks an interrupted
		// generation rather than some unrelated folder.
		if incomplete == nil {
			if info, err := os.Stat(filepath.Join(dir, tmpDirName)); err == nil && info.IsDir() {
				s.logger.Info("Found incomplete game", "dir", dir)
				incomplete = &Incomplete{Name: entry.Name(), Dir: dir}
			}
		}
	}

	return games, incomplete, nil
}

// ClearIncomplete deletes an interrupted generation the player chose
// to discard.
func (s *Scanner) ClearIncomplete(inc *Incomplete) error {
	if inc == nil {
		return nil
	}
	s.logger.Info("Deleting incomplete game", "dir", inc.Dir)
	if err := os.RemoveAll(inc.Dir); err != nil {
		return fmt.Errorf("failed to delete incomplete game: %w", err)
	}
	return nil
}

func loadGame(path string) (*game.Game, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var g game.Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &g, nil
}
