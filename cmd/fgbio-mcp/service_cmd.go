package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flemzord/fgbio-mcp/pkg/app"
)

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Install and control fgbio-mcp as an OS service (HTTP transport)",
	}
	for _, action := range app.ServiceActions {
		cmd.AddCommand(&cobra.Command{
			Use:   action,
			Short: fmt.Sprintf("%s the fgbio-mcp service", action),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				svc, err := app.NewService(runParams(cmd, ""))
				if err != nil {
					return err
				}
				if err := app.ControlService(svc, action); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "service %s: done\n", action)
				return nil
			},
		})
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run under the service manager",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := app.NewService(runParams(cmd, ""))
			if err != nil {
				return err
			}
			return svc.Run()
		},
	})
	return cmd
}
