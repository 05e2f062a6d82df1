package k8s

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

// Cluster is a cluster entry of the connection graph
type Cluster struct {
	Name          string
	Server        string
	SkipTLSVerify bool
}

// User is a user entry of the connection graph
type User struct {
	Name string
}

// Context is a context entry of the connection graph. Cluster and User are
// references by name and are not guaranteed to resolve.
type Context struct {
	Name      string
	Cluster   string
	User      string
	Namespace string
}

// Graph is the connection graph described by a kubeconfig
type Graph struct {
	Clusters       []Cluster
	Users          []User
	Contexts       []Context
	CurrentContext string
}

// Context returns the context with the given name.
func (g Graph) Context(name string) (Context, bool) {
	for _, c := range g.Contexts {
		if c.Name == name {
			return c, true
		}
	}
	return Context{}, false
}

// Cluster returns the cluster with the given name.
func (g Graph) Cluster(name string) (Cluster, bool) {
	for _, c := range g.Clusters {
		if c.Name == name {
			return c, true
		}
	}
	return Cluster{}, false
}

// GraphFromConfig extracts the connection graph from a parsed kubeconfig.
// Entries are sorted by name since the source maps have no stable order.
func GraphFromConfig(config *clientcmdapi.Config) Graph {
	if config == nil {
		return Graph{}
	}

	graph := Graph{
		Clusters:       make([]Cluster, 0, len(config.Clusters)),
		Users:          make([]User, 0, len(config.AuthInfos)),
		Contexts:       make([]Context, 0, len(config.Contexts)),
		CurrentContext: config.CurrentContext,
	}

	for name, cluster := range config.Clusters {
		c := Cluster{Name: name}
		if cluster != nil {
			c.Server = cluster.Server
			c.SkipTLSVerify = cluster.InsecureSkipTLSVerify
		}
		graph.Clusters = append(graph.Clusters, c)
	}
	for name := range config.AuthInfos {
		graph.Users = append(graph.Users, User{Name: name})
	}
	for name, ctx := range config.Contexts {
		c := Context{Name: name}
		if ctx != nil {
			c.Cluster = ctx.Cluster
			c.User = ctx.AuthInfo
			c.Namespace = ctx.Namespace
		}
		graph.Contexts = append(graph.Contexts, c)
	}

	sort.Slice(graph.Clusters, func(i, j int) bool { return graph.Clusters[i].Name < graph.Clusters[j].Name })
	sort.Slice(graph.Users, func(i, j int) bool { return graph.Users[i].Name < graph.Users[j].Name })
	sort.Slice(graph.Contexts, func(i, j int) bool { return graph.Contexts[i].Name < graph.Contexts[j].Name })

	return graph
}

// LoadKubeconfig reads and parses the kubeconfig at path.
func LoadKubeconfig(path string) (*clientcmdapi.Config, error) {
	config, err := clientcmd.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}
	return config, nil
}

// KubeconfigExists reports whether a regular file exists at path.
func KubeconfigExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// IsNotExist reports whether err means the kubeconfig file is missing.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// DefaultKubeconfigPath returns the first entry of $KUBECONFIG, or
// $HOME/.kube/config when unset.
func DefaultKubeconfigPath() string {
	if env := os.Getenv(clientcmd.RecommendedConfigPathEnvVar); env != "" {
		for _, p := range filepath.SplitList(env) {
			if p != "" {
				return p
			}
		}
	}
	return clientcmd.RecommendedHomeFile
}
