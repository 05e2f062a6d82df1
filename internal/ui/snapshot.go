package ui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/renato0307/kubecontexts/internal/channels"
	"github.com/renato0307/kubecontexts/internal/dashboard"
	"github.com/renato0307/kubecontexts/internal/rpc"
)

// Health of a context as shown to the user
type Health string

const (
	HealthUnknown   Health = "unknown"
	HealthChecking  Health = "checking"
	HealthReachable Health = "reachable"
	HealthOffline   Health = "offline"
	HealthError     Health = "error"
)

// ContextRow is one line of the contexts view
type ContextRow struct {
	Name      string `json:"name"`
	Current   bool   `json:"current,omitempty"`
	Cluster   string `json:"cluster,omitempty"`
	Server    string `json:"server,omitempty"`
	User      string `json:"user,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Health    Health `json:"health"`
	Error     string `json:"error,omitempty"`
	// Resources reads like "deployments=2 pods=3/5", active counts after the slash
	Resources string   `json:"resources,omitempty"`
	Denied    []string `json:"denied,omitempty"`
}

// Snapshot accumulates the latest payload of every channel
type Snapshot struct {
	Contexts channels.AvailableContextsInfo
	Healths  channels.ContextHealthsInfo
	Counts   channels.ResourcesCountInfo
	Active   channels.ActiveResourcesCountInfo
	Perms    channels.ContextsPermissionsInfo
}

// Apply stores the payload of msg. Messages on unknown channels are ignored.
func (s *Snapshot) Apply(msg rpc.Message) error {
	var target any
	switch msg.Channel {
	case channels.AvailableContexts:
		target = &s.Contexts
	case channels.ContextHealths:
		target = &s.Healths
	case channels.ResourcesCount:
		target = &s.Counts
	case channels.ActiveResourcesCount:
		target = &s.Active
	case channels.ContextsPermissions:
		target = &s.Perms
	default:
		return nil
	}
	if err := json.Unmarshal(msg.Payload, target); err != nil {
		return fmt.Errorf("error decoding %s payload: %w", msg.Channel, err)
	}
	return nil
}

// Checking tells whether any context check is in progress
func (s *Snapshot) Checking() bool {
	for _, h := range s.Healths.Healths {
		if h.Checking {
			return true
		}
	}
	return false
}

// Rows joins every payload into one row per context, in kubeconfig name order
func (s *Snapshot) Rows() []ContextRow {
	servers := make(map[string]string, len(s.Contexts.Clusters))
	for _, c := range s.Contexts.Clusters {
		servers[c.Name] = c.Server
	}
	healths := make(map[string]dashboard.ContextHealth, len(s.Healths.Healths))
	for _, h := range s.Healths.Healths {
		healths[h.ContextName] = h
	}
	counts := indexCounts(s.Counts.Counts)
	active := indexCounts(s.Active.Counts)
	denied := make(map[string][]string)
	for _, p := range s.Perms.Permissions {
		if !p.Permitted {
			denied[p.ContextName] = append(denied[p.ContextName], p.ResourceName)
		}
	}

	rows := make([]ContextRow, 0, len(s.Contexts.Contexts))
	for _, c := range s.Contexts.Contexts {
		row := ContextRow{
			Name:      c.Name,
			Current:   c.Name == s.Contexts.CurrentContext,
			Cluster:   c.Cluster,
			Server:    servers[c.Cluster],
			User:      c.User,
			Namespace: c.Namespace,
			Health:    HealthUnknown,
			Resources: formatCounts(counts[c.Name], active[c.Name]),
		}
		if h, ok := healths[c.Name]; ok {
			row.Health = healthOf(h)
			row.Error = h.Error
		}
		if d := denied[c.Name]; len(d) > 0 {
			sort.Strings(d)
			row.Denied = d
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows
}

func healthOf(h dashboard.ContextHealth) Health {
	switch {
	case h.Checking:
		return HealthChecking
	case h.Reachable:
		return HealthReachable
	case h.Offline:
		return HealthOffline
	default:
		return HealthError
	}
}

func indexCounts(counts []dashboard.ResourceCount) map[string]map[string]int {
	index := make(map[string]map[string]int)
	for _, c := range counts {
		if index[c.ContextName] == nil {
			index[c.ContextName] = make(map[string]int)
		}
		index[c.ContextName][c.ResourceName] = c.Count
	}
	return index
}

func formatCounts(counts, active map[string]int) string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		if n, ok := active[name]; ok {
			parts = append(parts, fmt.Sprintf("%s=%d/%d", name, n, counts[name]))
		} else {
			parts = append(parts, fmt.Sprintf("%s=%d", name, counts[name]))
		}
	}
	return strings.Join(parts, " ")
}

// FilterRows keeps the rows whose name, cluster or user fuzzy-match filter.
// A leading "!" keeps the rows that do not match.
func FilterRows(rows []ContextRow, filter string) []ContextRow {
	if filter == "" {
		return rows
	}

	searchStrings := make([]string, len(rows))
	for i, r := range rows {
		searchStrings[i] = strings.ToLower(strings.Join([]string{r.Name, r.Cluster, r.User}, " "))
	}

	if negated, ok := strings.CutPrefix(filter, "!"); ok {
		matchSet := make(map[int]bool)
		for _, m := range fuzzy.Find(strings.ToLower(negated), searchStrings) {
			matchSet[m.Index] = true
		}
		filtered := make([]ContextRow, 0, len(rows))
		for i, r := range rows {
			if !matchSet[i] {
				filtered = append(filtered, r)
			}
		}
		return filtered
	}

	matches := fuzzy.Find(strings.ToLower(filter), searchStrings)
	filtered := make([]ContextRow, len(matches))
	for i, m := range matches {
		filtered[i] = rows[m.Index]
	}
	return filtered
}
