package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/flemzord/fgbio-mcp/internal/config"
	"github.com/flemzord/fgbio-mcp/internal/cron"
	"github.com/flemzord/fgbio-mcp/pkg/app"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(configCheckCmd(), configInitCmd())
	return cmd
}

func configCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [path]",
		Short: "Validate configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := runParams(cmd, "")
			if len(args) == 1 {
				params.ConfigPath = args[0]
			}
			cfg, path, err := app.LoadConfig(params)
			if err != nil {
				return err
			}
			if path == "" {
				path = "built-in defaults"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration OK (%s)\n", path)
			fmt.Fprintf(out, "  toolkit:   %s (timeout %s)\n", cfg.Toolkit.Executable, cfg.Toolkit.Timeout)
			fmt.Fprintf(out, "  transport: %s\n", cfg.Server.Transport)
			if cfg.Server.Transport == config.TransportHTTP {
				fmt.Fprintf(out, "  bind:      %s (auth: %v)\n", cfg.Server.HTTP.Bind, cfg.Server.HTTP.Auth.IsConfigured())
			}
			return nil
		},
	}
}

func configInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively write a configuration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			output, _ := cmd.Flags().GetString("output")
			force, _ := cmd.Flags().GetBool("force")
			if output == "" {
				output = config.SearchPaths()[0]
			}
			if _, err := os.Stat(output); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", output)
			}

			answers := defaultAnswers()
			if err := initForm(&answers).Run(); err != nil {
				return err
			}

			data, err := answers.render()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(output), 0o750); err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Destination file (default: first search path)")
	cmd.Flags().Bool("force", false, "Overwrite an existing file")
	return cmd
}

// initAnswers holds the values collected by `config init`.
type initAnswers struct {
	Executable    string
	Timeout       string
	ProbeSchedule string
	Transport     string
	Bind          string
	BearerToken   string
	AuditPath     string
	ProbeOnStart  bool
}

func defaultAnswers() initAnswers {
	return initAnswers{
		Executable:    "fgbio",
		Timeout:       "1h",
		ProbeSchedule: "@every 5m",
		Transport:     config.TransportStdio,
		Bind:          "127.0.0.1:8080",
		ProbeOnStart:  true,
	}
}

func initForm(a *initAnswers) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("fgbio executable").
				Description("Name on PATH or absolute path.").
				Value(&a.Executable).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Per-call timeout").
				Value(&a.Timeout).
				Validate(func(s string) error {
					_, err := time.ParseDuration(s)
					return err
				}),
			huh.NewConfirm().
				Title("Check the toolkit at startup?").
				Value(&a.ProbeOnStart),
			huh.NewInput().
				Title("Re-check schedule").
				Description("Cron expression or @every duration. Leave empty to disable.").
				Value(&a.ProbeSchedule).
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					return cron.ParseSchedule(s)
				}),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Transport").
				Options(
					huh.NewOption("stdio (spawned by an MCP client)", config.TransportStdio),
					huh.NewOption("http (long-running server)", config.TransportHTTP),
				).
				Value(&a.Transport),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Bind address").
				Value(&a.Bind),
			huh.NewInput().
				Title("Bearer token").
				Description("Leave empty to disable auth. ${VAR} references are expanded at load time.").
				EchoMode(huh.EchoModePassword).
				Value(&a.BearerToken),
		).WithHideFunc(func() bool { return a.Transport != config.TransportHTTP }),
		huh.NewGroup(
			huh.NewInput().
				Title("Audit log path").
				Description("JSON lines, one per call. Empty disables, - is stderr.").
				Value(&a.AuditPath),
		),
	)
}

type initDoc struct {
	Version string      `yaml:"version"`
	Toolkit initToolkit `yaml:"toolkit"`
	Server  initServer  `yaml:"server"`
	Audit   *initAudit  `yaml:"audit,omitempty"`
}

type initToolkit struct {
	Executable    string `yaml:"executable"`
	Timeout       string `yaml:"timeout"`
	ProbeOnStart  bool   `yaml:"probe_on_start"`
	ProbeSchedule string `yaml:"probe_schedule,omitempty"`
}

type initServer struct {
	Transport string    `yaml:"transport"`
	HTTP      *initHTTP `yaml:"http,omitempty"`
}

type initHTTP struct {
	Bind string    `yaml:"bind"`
	Auth *initAuth `yaml:"auth,omitempty"`
}

type initAuth struct {
	BearerToken string `yaml:"bearer_token"`
}

type initAudit struct {
	Path string `yaml:"path"`
}

// render writes the answers as YAML and checks that the result loads.
func (a initAnswers) render() ([]byte, error) {
	doc := initDoc{
		Version: "1",
		Toolkit: initToolkit{
			Executable:    a.Executable,
			Timeout:       a.Timeout,
			ProbeOnStart:  a.ProbeOnStart,
			ProbeSchedule: a.ProbeSchedule,
		},
		Server: initServer{Transport: a.Transport},
	}
	if a.Transport == config.TransportHTTP {
		doc.Server.HTTP = &initHTTP{Bind: a.Bind}
		if a.BearerToken != "" {
			doc.Server.HTTP.Auth = &initAuth{BearerToken: a.BearerToken}
		}
	}
	if a.AuditPath != "" {
		doc.Audit = &initAudit{Path: a.AuditPath}
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Parse(data)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return data, nil
}
