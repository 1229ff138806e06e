package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hf-risk-server/internal/setup"
)

func newMCPInstallCmd() *cobra.Command {
	var (
		opts   setup.Options
		remove bool
	)

	cmd := &cobra.Command{
		Use:   "mcp-install",
		Short: "Register the MCP server with a desktop MCP client",
		Long: `Adds an "hf-risk" entry to the desktop client's claude_desktop_config.json
so the client launches the MCP server over stdio. Other entries are kept.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if remove {
				path := opts.ConfigPath
				if path == "" {
					var err error
					if path, err = setup.DefaultConfigPath(); err != nil {
						return err
					}
				}
				removed, err := setup.Unregister(path)
				if err != nil {
					return err
				}
				if removed {
					fmt.Fprintf(cmd.OutOrStdout(), "removed %s from %s\n", setup.ServerName, path)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is not registered in %s\n", setup.ServerName, path)
				}
				return nil
			}

			path, err := setup.Register(opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s in %s\nrestart the client to load it\n", setup.ServerName, path)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "client-config", "", "Client config file (default: platform location)")
	cmd.Flags().StringVar(&opts.BinaryPath, "binary", "", "MCP server binary (default: "+setup.BinaryName+" on PATH)")
	cmd.Flags().StringVar(&opts.ConfigFile, "server-config", "", "config.yaml the MCP server should load")
	cmd.Flags().BoolVar(&remove, "remove", false, "Remove the entry instead of adding it")

	return cmd
}
