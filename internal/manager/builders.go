package manager

import (
	"github.com/renato0307/kubecontexts/internal/channels"
	"github.com/renato0307/kubecontexts/internal/k8s"
)

// AvailableContextsBuilder builds the connection graph payload.
func AvailableContextsBuilder(contexts *k8s.ContextsManager) Builder {
	return NewBuilder(channels.AvailableContexts, func() any {
		return AvailableContexts(contexts.Graph())
	})
}

// AvailableContexts converts a connection graph to its channel payload.
// References to clusters and users are passed through unresolved.
func AvailableContexts(graph k8s.Graph) channels.AvailableContextsInfo {
	info := channels.AvailableContextsInfo{
		Clusters:       make([]channels.Cluster, 0, len(graph.Clusters)),
		Users:          make([]channels.User, 0, len(graph.Users)),
		Contexts:       make([]channels.Context, 0, len(graph.Contexts)),
		CurrentContext: graph.CurrentContext,
	}
	for _, c := range graph.Clusters {
		info.Clusters = append(info.Clusters, channels.Cluster{
			Name:          c.Name,
			Server:        c.Server,
			SkipTLSVerify: c.SkipTLSVerify,
		})
	}
	for _, u := range graph.Users {
		info.Users = append(info.Users, channels.User{Name: u.Name})
	}
	for _, c := range graph.Contexts {
		info.Contexts = append(info.Contexts, channels.Context{
			Name:      c.Name,
			Cluster:   c.Cluster,
			User:      c.User,
			Namespace: c.Namespace,
		})
	}
	return info
}

// ContextHealthsBuilder builds the contexts health snapshot held by states.
func ContextHealthsBuilder(states *DashboardStates) Builder {
	return NewBuilder(channels.ContextHealths, func() any { return states.ContextsHealths() })
}

// ResourcesCountBuilder builds the resources count snapshot held by states.
func ResourcesCountBuilder(states *DashboardStates) Builder {
	return NewBuilder(channels.ResourcesCount, func() any { return states.ResourcesCount() })
}

// ActiveResourcesCountBuilder builds the active resources count snapshot held by states.
func ActiveResourcesCountBuilder(states *DashboardStates) Builder {
	return NewBuilder(channels.ActiveResourcesCount, func() any { return states.ActiveResourcesCount() })
}

// ContextsPermissionsBuilder builds the contexts permissions snapshot held by states.
func ContextsPermissionsBuilder(states *DashboardStates) Builder {
	return NewBuilder(channels.ContextsPermissions, func() any { return states.ContextsPermissions() })
}
