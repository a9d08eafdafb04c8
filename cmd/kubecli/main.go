package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/vitqst/kubecli-sub000/internal/catalog"
	"github.com/vitqst/kubecli-sub000/internal/commands"
	"github.com/vitqst/kubecli-sub000/internal/config"
	"github.com/vitqst/kubecli-sub000/internal/envsync"
	"github.com/vitqst/kubecli-sub000/internal/logging"
	"github.com/vitqst/kubecli-sub000/internal/terminal"
	"github.com/vitqst/kubecli-sub000/internal/tui"
	"github.com/vitqst/kubecli-sub000/pkg/events"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Local overrides; absence is fine.
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logger.Sync()

	registry := terminal.NewRegistry(logger, terminal.Options{
		Shell:      cfg.Terminal.DefaultShell,
		Backend:    cfg.Terminal.Backend,
		DefaultCwd: cfg.Terminal.DefaultCwd,
		Cols:       cfg.Terminal.Cols,
		Rows:       cfg.Terminal.Rows,
	})
	defer registry.CloseAll()

	cmdRegistry := commands.NewRegistry()

	surface := tui.New(registry, cmdRegistry, logger, "", cfg.Terminal.DefaultCwd, nil)
	program := tea.NewProgram(surface, tea.WithAltScreen(), tea.WithContext(ctx))
	surface.SetProgram(program)

	coordinator := envsync.New(registry, tui.NewBridge(program), &catalog.ShellRenderer{},
		logger, cfg.EnvUpdate.SettleDelay.Std(), cfg.EnvUpdate.ApplyDelay.Std())

	cmdsToRegister := []commands.Command{
		&commands.HelpCmd{Registry: cmdRegistry},
		&commands.SessionsCmd{Sessions: registry},
		&commands.EnvCmd{
			Env:    coordinator,
			Target: surface.SessionID,
			Notify: func(id string, err error) {
				program.Send(events.EnvUpdateDoneMsg{ID: id, Err: err})
			},
		},
		&commands.SignalCmd{Sessions: registry, Target: surface.SessionID},
		&commands.CopyCmd{Text: surface.GridText},
		&commands.QuitCmd{RequestQuit: func() { program.Send(events.QuitMsg{}) }},
	}
	for _, cmd := range cmdsToRegister {
		if err := cmdRegistry.Register(cmd); err != nil {
			log.Fatalf("Failed to register command %s: %v", cmd.Name(), err)
		}
	}

	if _, err := program.Run(); err != nil {
		logger.Error("program exited with error", zap.Error(err))
		os.Exit(1)
	}
}
