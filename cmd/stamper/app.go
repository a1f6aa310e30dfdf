package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/stamper/internal/api"
	"github.com/JaimeStill/stamper/internal/config"
	"github.com/JaimeStill/stamper/internal/documents"
	"github.com/JaimeStill/stamper/internal/infrastructure"
)

// app carries state shared by every subcommand: flags, the loaded config,
// and, for document commands, the started infrastructure.
type app struct {
	configPath string
	root       string
	verbose    bool

	cfg   *config.Config
	level string
	infra *infrastructure.Infrastructure
	docs  documents.System

	newInfra func(*config.Config, io.Writer) (*infrastructure.Infrastructure, error)
}

func newApp() *app {
	return &app{newInfra: infrastructure.NewWithWriter}
}

// load reads the configuration and applies command line overrides.
func (a *app) load() error {
	cfg, err := config.LoadFile(a.configPath)
	if err != nil {
		return err
	}
	if a.root != "" {
		cfg.Storage.Root = a.root
	}
	a.level = cfg.Logging.Level
	if !a.verbose {
		cfg.Logging.Level = "warn"
	}
	a.cfg = cfg
	return nil
}

// open starts storage and builds the document system.
func (a *app) open(cmd *cobra.Command) error {
	infra, err := a.newInfra(a.cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if err := infra.Start(); err != nil {
		return err
	}
	if err := infra.Lifecycle.WaitForStartup(); err != nil {
		return fmt.Errorf("storage not ready: %w", err)
	}

	domain, err := api.NewDomain(api.NewRuntime(a.cfg, infra))
	if err != nil {
		return err
	}

	a.infra = infra
	a.docs = domain.Documents
	return nil
}

func (a *app) close() error {
	if a.infra == nil {
		return nil
	}
	return a.infra.Lifecycle.Shutdown(a.cfg.ShutdownTimeoutDuration())
}

// documents wraps a command body that needs the document system.
func (a *app) documents(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.open(cmd); err != nil {
			return err
		}
		defer a.close()
		return run(cmd, args)
	}
}

func (a *app) shutdownTimeout() time.Duration {
	if a.cfg == nil {
		return 30 * time.Second
	}
	return a.cfg.ShutdownTimeoutDuration()
}
