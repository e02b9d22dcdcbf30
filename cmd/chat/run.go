package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/avvvet/portfolio-chat/internal/config"
	"github.com/avvvet/portfolio-chat/internal/knowledge"
	"github.com/avvvet/portfolio-chat/internal/logging"
	"github.com/avvvet/portfolio-chat/internal/narrator"
	"github.com/avvvet/portfolio-chat/internal/responder"
	"github.com/avvvet/portfolio-chat/internal/session"
	"github.com/avvvet/portfolio-chat/internal/ui"
)

// loadConfig reads the environment and applies command line overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("mode") {
		cfg.ChatMode = modeFlag
	}
	if flags.Changed("table") {
		cfg.ChatTablePath = tableFlag
	}
	if flags.Changed("mute") {
		cfg.ChatMuted = muteFlag
	}
	if flags.Changed("delay") {
		delay, err := time.ParseDuration(delayFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid --delay: %w", err)
		}
		cfg.ChatTypingDelay = delay
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Log lines would tear through the UI, so they only go to LOG_FILE.
	log := logging.FileOnly(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})

	tables, err := knowledge.Load(cfg.ChatTablePath)
	if err != nil {
		return err
	}

	var voice session.Narrator = narrator.Silent{}
	if cfg.NarrationEnabled() {
		player, err := narrator.NewFilePlayer(cfg.TTSOutputDir)
		if err != nil {
			return err
		}
		n := narrator.New(narrator.NewElevenLabs(cfg.TTSAPIKey, cfg.TTSVoiceID, 30*time.Second), player, log)
		defer n.Close()
		voice = n
		log.WithField("dir", cfg.TTSOutputDir).Info("🔊 Narration enabled")
	}

	model, err := ui.New(ui.Options{
		Mode:        cfg.ChatMode,
		Keyword:     responder.NewKeywordResponder(tables.Keyword),
		Menu:        responder.NewMenuResponder(tables.Menu),
		Narrator:    voice,
		TypingDelay: cfg.ChatTypingDelay,
		Muted:       cfg.ChatMuted,
		Open:        openFlag,
		Log:         log,
	})
	if err != nil {
		return err
	}

	log.WithField("version", tables.Version).Info("💬 Chat window started")
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}
