// kubecontexts serves kubeconfig contexts and dashboard data to frontends
// over a local websocket.
//
// Usage:
//
//	kubecontexts serve
//	kubecontexts contexts prod -o yaml
//	kubecontexts watch --theme nord
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var (
	version    = "dev"
	configPath string
)

func main() {
	// Suppress klog errors from client-go (RBAC permission errors during checks)
	klog.InitFlags(nil)
	_ = flag.Set("logtostderr", "false")
	_ = flag.Set("stderrthreshold", "FATAL")
	_ = flag.Set("v", "0")
	defer klog.Flush()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "kubecontexts",
		Short: "Serve kubeconfig contexts and their health to frontends",
		Long: `kubecontexts watches the kubeconfig and, through the optional
dashboard companion, the health, resource counts and permissions of every
context. Frontends subscribe to channels over a local websocket.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to kubecontexts.yaml")
	rootCmd.PersistentFlags().String("kubeconfig", "", "Path to kubeconfig file (default: $KUBECONFIG or $HOME/.kube/config)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(contextsCmd())
	rootCmd.AddCommand(watchCmd())
	return rootCmd
}
