package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
	"sigs.k8s.io/yaml"

	"github.com/renato0307/kubecontexts/internal/config"
	"github.com/renato0307/kubecontexts/internal/k8s"
	"github.com/renato0307/kubecontexts/internal/manager"
	"github.com/renato0307/kubecontexts/internal/ui"
)

func contextsCmd() *cobra.Command {
	var output, theme string

	cmd := &cobra.Command{
		Use:   "contexts [filter]",
		Short: "List the contexts of the kubeconfig",
		Long: `List the contexts of the kubeconfig, optionally fuzzy filtered by
name, cluster or user. A filter starting with ! excludes matches.

Examples:
  # List every context
  kubecontexts contexts

  # Contexts that look like prod, as YAML
  kubecontexts contexts prod -o yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			kubeconfig, err := k8s.LoadKubeconfig(cfg.Kubeconfig)
			if k8s.IsNotExist(err) {
				kubeconfig = clientcmdapi.NewConfig()
			} else if err != nil {
				return err
			}

			filter := ""
			if len(args) == 1 {
				filter = args[0]
			}
			rows := contextRows(kubeconfig, filter)
			return writeRows(cmd.OutOrStdout(), rows, output, ui.GetTheme(theme))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table, json, yaml")
	cmd.Flags().StringVar(&theme, "theme", "charm", "Table theme: charm, dracula, nord, gruvbox")
	return cmd
}

// contextRows lists the contexts of kubeconfig the way the extension
// publishes them, without health or counts.
func contextRows(kubeconfig *clientcmdapi.Config, filter string) []ui.ContextRow {
	snapshot := ui.Snapshot{
		Contexts: manager.AvailableContexts(k8s.GraphFromConfig(kubeconfig)),
	}
	return ui.FilterRows(snapshot.Rows(), filter)
}

func writeRows(w io.Writer, rows []ui.ContextRow, format string, theme *ui.Theme) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(rows)
	case "yaml":
		data, err := yaml.Marshal(rows)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case "table":
		_, err := fmt.Fprintln(w, ui.RenderTable(rows, theme))
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
