package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/renato0307/kubecontexts/internal/channels"
	"github.com/renato0307/kubecontexts/internal/config"
	"github.com/renato0307/kubecontexts/internal/rpc"
	"github.com/renato0307/kubecontexts/internal/ui"
)

const dialTimeout = 5 * time.Second

func watchCmd() *cobra.Command {
	var theme string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show live contexts from a running kubecontexts serve",
		Long: `Connect to a running extension and show every context with its
health, resource counts and denied resources as they change.

Keys: / filter, esc clear filter, q quit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), dialTimeout)
			defer cancel()
			client, err := rpc.Dial(ctx, "ws://"+cfg.Server.Address+rpc.Path)
			if err != nil {
				return fmt.Errorf("is kubecontexts serve running? %w", err)
			}
			defer func() { _ = client.Close() }()

			for _, channel := range channels.All() {
				if err := client.Subscribe(ctx, channel); err != nil {
					return err
				}
			}

			p := tea.NewProgram(ui.NewModel(client, ui.GetTheme(theme)), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("error running program: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().String("address", "", "Address of the running extension")
	cmd.Flags().StringVar(&theme, "theme", "charm", "Theme: charm, dracula, nord, gruvbox")
	return cmd
}
