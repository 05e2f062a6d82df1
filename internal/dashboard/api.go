// Package dashboard is the Kubernetes dashboard companion extension.
//
// It watches every context of the kubeconfig and publishes per-context
// reachability, resource counts and permissions to any number of
// subscribers. Other extensions reach it through the extension host by
// ExtensionID and use the API it exports.
package dashboard

import "github.com/renato0307/kubecontexts/internal/event"

// ExtensionID is the identifier the dashboard extension registers under.
const ExtensionID = "redhat.kubernetes-dashboard"

// ContextHealth is the reachability of one context.
type ContextHealth struct {
	ContextName string `json:"contextName"`
	// Checking is true while a check is in progress.
	Checking  bool `json:"checking"`
	Reachable bool `json:"reachable"`
	// Offline is true when the API server could not be contacted at all.
	Offline bool   `json:"offline"`
	Error   string `json:"errorMessage,omitempty"`
}

// ContextsHealthsInfo holds at most one record per context. A context
// without a record has unknown health.
type ContextsHealthsInfo struct {
	Healths []ContextHealth `json:"healths"`
}

// ResourceCount is the number of resources of a kind in one context.
type ResourceCount struct {
	ContextName  string `json:"contextName"`
	ResourceName string `json:"resourceName"`
	Count        int    `json:"count"`
}

// ResourcesCountInfo holds one entry per (context, resource kind).
type ResourcesCountInfo struct {
	Counts []ResourceCount `json:"counts"`
}

// ActiveResourcesCountInfo holds counts of resources that are currently
// active, such as running pods.
type ActiveResourcesCountInfo struct {
	Counts []ResourceCount `json:"counts"`
}

// ContextPermission tells whether the context user may list and watch a
// resource kind.
type ContextPermission struct {
	ContextName  string `json:"contextName"`
	ResourceName string `json:"resourceName"`
	Permitted    bool   `json:"permitted"`
	Reason       string `json:"reason,omitempty"`
}

// ContextsPermissionsInfo holds one entry per (context, resource kind).
type ContextsPermissionsInfo struct {
	Permissions []ContextPermission `json:"permissions"`
}

// Subscriber receives dashboard updates. Every registration made through it
// is released by Dispose.
type Subscriber interface {
	OnContextsHealth(func(ContextsHealthsInfo)) event.Disposable
	OnResourcesCount(func(ResourcesCountInfo)) event.Disposable
	OnActiveResourcesCount(func(ActiveResourcesCountInfo)) event.Disposable
	OnContextsPermissions(func(ContextsPermissionsInfo)) event.Disposable
	event.Disposable
}

// API is what the dashboard extension exports to other extensions.
type API interface {
	GetSubscriber() (Subscriber, error)
}
