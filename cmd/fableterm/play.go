package main

import (
	"fmt"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fableterm/fableterm/internal/bridge"
	"github.com/fableterm/fableterm/internal/config"
	"github.com/fableterm/fableterm/internal/logger"
	"github.com/fableterm/fableterm/internal/saves"
	"github.com/fableterm/fableterm/internal/session"
	"github.com/fableterm/fableterm/internal/tui"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start the client",
	Long: `Start the interactive client.

The backend must be running and reachable; set --api or API_BASE_URL
if it is not on localhost:8080.`,
	RunE: runPlay,
}

func runPlay(_ *cobra.Command, _ []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("fableterm needs an interactive terminal")
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagAPI != "" {
		cfg.APIBaseURL = flagAPI
	}

	log, closeLog, err := logger.Setup(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = closeLog() // Ignore error in defer
	}()

	httpClient := &http.Client{Timeout: cfg.Timeout}
	client := bridge.NewClient(cfg.APIBaseURL, httpClient, log)
	orch := session.NewOrchestrator(client, log)
	scanner := saves.NewScanner(cfg.SavesDir, log)

	log.Info("Starting client", "api", cfg.APIBaseURL, "saves", cfg.SavesDir)

	p := tea.NewProgram(tui.NewApp(cfg, log, client, orch, scanner),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
