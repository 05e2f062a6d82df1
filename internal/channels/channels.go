// Package channels names the channels the extension publishes to the
// frontend and defines their payloads.
package channels

import "github.com/renato0307/kubecontexts/internal/dashboard"

// Channel names. They are unique across all payload builders.
const (
	AvailableContexts    = "available-contexts"
	ContextHealths       = "context-healths"
	ResourcesCount       = "resources-count"
	ActiveResourcesCount = "active-resources-count"
	ContextsPermissions  = "contexts-permissions"
)

// All returns every channel name, in display order.
func All() []string {
	return []string{
		AvailableContexts,
		ContextHealths,
		ResourcesCount,
		ActiveResourcesCount,
		ContextsPermissions,
	}
}

// Cluster as sent to the frontend
type Cluster struct {
	Name          string `json:"name"`
	Server        string `json:"server"`
	SkipTLSVerify bool   `json:"skipTLSVerify,omitempty"`
}

// User as sent to the frontend
type User struct {
	Name string `json:"name"`
}

// Context as sent to the frontend. Cluster and User are the names the
// kubeconfig refers to; they are passed through unresolved and may point to
// entries that do not exist.
type Context struct {
	Name      string `json:"name"`
	Cluster   string `json:"cluster,omitempty"`
	User      string `json:"user,omitempty"`
	Namespace string `json:"namespace,omitempty"`
}

// AvailableContextsInfo is the payload of the AvailableContexts channel.
type AvailableContextsInfo struct {
	Clusters       []Cluster `json:"clusters"`
	Users          []User    `json:"users"`
	Contexts       []Context `json:"contexts"`
	CurrentContext string    `json:"currentContext"`
}

// Payloads of the dashboard channels are the dashboard snapshots themselves.
type (
	ContextHealthsInfo       = dashboard.ContextsHealthsInfo
	ResourcesCountInfo       = dashboard.ResourcesCountInfo
	ActiveResourcesCountInfo = dashboard.ActiveResourcesCountInfo
	ContextsPermissionsInfo  = dashboard.ContextsPermissionsInfo
)
