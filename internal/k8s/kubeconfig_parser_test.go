package k8s

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

// writeKubeconfig writes config into a temp dir and returns its path
func writeKubeconfig(t *testing.T, config *clientcmdapi.Config) string {
	t.Helper()
	kubeconfigPath := filepath.Join(t.TempDir(), "kubeconfig")
	require.NoError(t, clientcmd.WriteToFile(*config, kubeconfigPath))
	return kubeconfigPath
}

// TestLoadGraph tests LoadKubeconfig followed by GraphFromConfig
func TestLoadGraph(t *testing.T) {
	tests := []struct {
		name        string
		setupFunc   func(t *testing.T) string // Returns kubeconfig path
		expectError bool
		validate    func(t *testing.T, graph Graph)
	}{
		{
			name: "valid kubeconfig with multiple contexts",
			setupFunc: func(t *testing.T) string {
				config := clientcmdapi.NewConfig()
				config.Clusters["cluster1"] = &clientcmdapi.Cluster{
					Server: "https://cluster1.example.com",
				}
				config.Clusters["cluster2"] = &clientcmdapi.Cluster{
					Server:                "https://cluster2.example.com",
					InsecureSkipTLSVerify: true,
				}
				config.AuthInfos["user1"] = &clientcmdapi.AuthInfo{
					Token: "token1",
				}
				config.AuthInfos["user2"] = &clientcmdapi.AuthInfo{
					Token: "token2",
				}
				config.Contexts["ctx-alpha"] = &clientcmdapi.Context{
					Cluster:   "cluster1",
					AuthInfo:  "user1",
					Namespace: "default",
				}
				config.Contexts["ctx-beta"] = &clientcmdapi.Context{
					Cluster:   "cluster2",
					AuthInfo:  "user2",
					Namespace: "kube-system",
				}
				config.Contexts["ctx-gamma"] = &clientcmdapi.Context{
					Cluster:  "cluster1",
					AuthInfo: "user1",
				}
				config.CurrentContext = "ctx-beta"
				return writeKubeconfig(t, config)
			},
			validate: func(t *testing.T, graph Graph) {
				require.Len(t, graph.Contexts, 3)
				assert.Equal(t, "ctx-alpha", graph.Contexts[0].Name)
				assert.Equal(t, "ctx-beta", graph.Contexts[1].Name)
				assert.Equal(t, "ctx-gamma", graph.Contexts[2].Name)

				assert.Equal(t, Context{Name: "ctx-beta", Cluster: "cluster2", User: "user2", Namespace: "kube-system"}, graph.Contexts[1])
				assert.Equal(t, "", graph.Contexts[2].Namespace)

				assert.Equal(t, []Cluster{
					{Name: "cluster1", Server: "https://cluster1.example.com"},
					{Name: "cluster2", Server: "https://cluster2.example.com", SkipTLSVerify: true},
				}, graph.Clusters)
				assert.Equal(t, []User{{Name: "user1"}, {Name: "user2"}}, graph.Users)
				assert.Equal(t, "ctx-beta", graph.CurrentContext)
			},
		},
		{
			name: "invalid kubeconfig path",
			setupFunc: func(t *testing.T) string {
				return "/nonexistent/path/kubeconfig"
			},
			expectError: true,
		},
		{
			name: "corrupted kubeconfig file",
			setupFunc: func(t *testing.T) string {
				kubeconfigPath := filepath.Join(t.TempDir(), "kubeconfig")
				require.NoError(t, os.WriteFile(kubeconfigPath, []byte("invalid: yaml: content: ["), 0644))
				return kubeconfigPath
			},
			expectError: true,
		},
		{
			name: "empty kubeconfig",
			setupFunc: func(t *testing.T) string {
				return writeKubeconfig(t, clientcmdapi.NewConfig())
			},
			validate: func(t *testing.T, graph Graph) {
				assert.Empty(t, graph.Contexts)
				assert.Empty(t, graph.Clusters)
				assert.Empty(t, graph.Users)
				assert.Equal(t, "", graph.CurrentContext)
			},
		},
		{
			name: "dangling references are kept as-is",
			setupFunc: func(t *testing.T) string {
				config := clientcmdapi.NewConfig()
				config.Contexts["orphan"] = &clientcmdapi.Context{
					Cluster:  "missing-cluster",
					AuthInfo: "missing-user",
				}
				config.CurrentContext = "not-a-context"
				return writeKubeconfig(t, config)
			},
			validate: func(t *testing.T, graph Graph) {
				require.Len(t, graph.Contexts, 1)
				assert.Equal(t, "missing-cluster", graph.Contexts[0].Cluster)
				assert.Equal(t, "missing-user", graph.Contexts[0].User)
				_, ok := graph.Cluster("missing-cluster")
				assert.False(t, ok)
				assert.Equal(t, "not-a-context", graph.CurrentContext)
			},
		},
		{
			name: "sorting verification with reverse alphabetical names",
			setupFunc: func(t *testing.T) string {
				config := clientcmdapi.NewConfig()
				config.Clusters["cluster"] = &clientcmdapi.Cluster{
					Server: "https://cluster.example.com",
				}
				for _, name := range []string{"zulu", "yankee", "xray", "alpha", "bravo"} {
					config.Contexts[name] = &clientcmdapi.Context{
						Cluster:   "cluster",
						Namespace: "default",
					}
				}
				return writeKubeconfig(t, config)
			},
			validate: func(t *testing.T, graph Graph) {
				names := make([]string, 0, len(graph.Contexts))
				for _, c := range graph.Contexts {
					names = append(names, c.Name)
				}
				assert.Equal(t, []string{"alpha", "bravo", "xray", "yankee", "zulu"}, names)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kubeconfigPath := tt.setupFunc(t)

			config, err := LoadKubeconfig(kubeconfigPath)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, config)
				return
			}
			require.NoError(t, err)
			if tt.validate != nil {
				tt.validate(t, GraphFromConfig(config))
			}
		})
	}
}

func TestGraphFromConfig_Nil(t *testing.T) {
	assert.Equal(t, Graph{}, GraphFromConfig(nil))
}

func TestGraph_Lookups(t *testing.T) {
	graph := Graph{
		Clusters: []Cluster{{Name: "cluster1", Server: "https://cluster1.example.com"}},
		Contexts: []Context{{Name: "context1", Cluster: "cluster1"}},
	}

	ctx, ok := graph.Context("context1")
	require.True(t, ok)
	cluster, ok := graph.Cluster(ctx.Cluster)
	require.True(t, ok)
	assert.Equal(t, "https://cluster1.example.com", cluster.Server)

	_, ok = graph.Context("nope")
	assert.False(t, ok)
}

func TestKubeconfigExists(t *testing.T) {
	path := writeKubeconfig(t, clientcmdapi.NewConfig())

	assert.True(t, KubeconfigExists(path))
	assert.False(t, KubeconfigExists(filepath.Dir(path)), "directories are not kubeconfigs")
	assert.False(t, KubeconfigExists(filepath.Join(t.TempDir(), "missing")))

	_, err := LoadKubeconfig(filepath.Join(t.TempDir(), "missing"))
	assert.True(t, IsNotExist(err))
}

func TestDefaultKubeconfigPath(t *testing.T) {
	first := filepath.Join(t.TempDir(), "first")
	second := filepath.Join(t.TempDir(), "second")

	t.Setenv("KUBECONFIG", first+string(filepath.ListSeparator)+second)
	assert.Equal(t, first, DefaultKubeconfigPath())

	t.Setenv("KUBECONFIG", "")
	assert.Equal(t, clientcmd.RecommendedHomeFile, DefaultKubeconfigPath())
}
