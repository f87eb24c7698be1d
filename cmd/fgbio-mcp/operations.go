package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/flemzord/fgbio-mcp/internal/bamtool"
	"github.com/flemzord/fgbio-mcp/internal/tool"
	"github.com/flemzord/fgbio-mcp/pkg/app"
)

// operationCmd runs one registered tool from the command line. Flags are
// derived from the tool's parameters, so the CLI and the MCP schema never
// drift apart.
func operationCmd(use, toolName, short string) *cobra.Command {
	params := toolParams(toolName)
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			args, err := collectArgs(cmd.Flags(), params)
			if err != nil {
				return err
			}
			return runOperation(cmd, toolName, args)
		},
	}
	for _, p := range params {
		addParamFlag(cmd.Flags(), p)
		if p.Required {
			_ = cmd.MarkFlagRequired(flagName(p.Name))
		}
	}
	return cmd
}

func toolParams(name string) []tool.Param {
	for _, t := range bamtool.New(nil, nil).Tools() {
		if t.Name == name {
			return t.Params
		}
	}
	return nil
}

// flagName turns input_bam into input-bam.
func flagName(param string) string {
	return strings.ReplaceAll(param, "_", "-")
}

func addParamFlag(fs *pflag.FlagSet, p tool.Param) {
	name := flagName(p.Name)
	usage := p.Description
	if len(p.Enum) > 0 {
		usage = fmt.Sprintf("%s (one of %v)", usage, p.Enum)
	}
	switch p.Type {
	case tool.ParamBoolean:
		def, _ := p.Default.(bool)
		fs.Bool(name, def, usage)
	case tool.ParamInteger:
		def, _ := p.Default.(int)
		fs.Int(name, def, usage)
	default:
		def, _ := p.Default.(string)
		fs.String(name, def, usage)
	}
}

// collectArgs builds the JSON arguments from the flags the user set.
// Unset flags are omitted so the operation applies its own defaults.
func collectArgs(fs *pflag.FlagSet, params []tool.Param) (json.RawMessage, error) {
	args := make(map[string]any)
	for _, p := range params {
		name := flagName(p.Name)
		if !fs.Changed(name) {
			continue
		}
		var (
			v   any
			err error
		)
		switch p.Type {
		case tool.ParamBoolean:
			v, err = fs.GetBool(name)
		case tool.ParamInteger:
			v, err = fs.GetInt(name)
		default:
			v, err = fs.GetString(name)
		}
		if err != nil {
			return nil, err
		}
		args[p.Name] = v
	}
	return json.Marshal(args)
}

func runOperation(cmd *cobra.Command, toolName string, args json.RawMessage) error {
	params := runParams(cmd, "")
	cfg, _, err := app.LoadConfig(params)
	if err != nil {
		return err
	}
	a, err := app.Build(cmd.Context(), cfg, app.Options{Version: version, LogOutput: params.Stderr})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(context.WithoutCancel(cmd.Context())) }()

	resp, err := a.Registry.Execute(cmd.Context(), toolName, args)
	if err != nil {
		return err
	}
	if err := printJSON(cmd.OutOrStdout(), resp); err != nil {
		return err
	}
	if !resp.Success {
		return errOperationFailed
	}
	return nil
}

func probeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check that the configured fgbio can be launched",
		RunE: func(cmd *cobra.Command, _ []string) error {
			params := runParams(cmd, "")
			cfg, _, err := app.LoadConfig(params)
			if err != nil {
				return err
			}
			a, err := app.Build(cmd.Context(), cfg, app.Options{Version: version, LogOutput: params.Stderr})
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(context.WithoutCancel(cmd.Context())) }()

			if err := a.Probe.Run(cmd.Context()); err != nil {
				return err
			}
			s := a.Health.Snapshot()
			fmt.Fprintf(cmd.OutOrStdout(), "%s: fgbio %s\n", a.Runner.Executable(), s.Version)
			return nil
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
