package manager

import (
	"github.com/renato0307/kubecontexts/internal/dashboard"
	"github.com/renato0307/kubecontexts/internal/event"
)

// DashboardStates caches the latest snapshot of every companion feed.
// Getters return an empty value until a producer writes. Setters overwrite
// and then fire the slot's change event; listeners read the value back
// through the getter.
//
// It is not safe for concurrent use; the event loop owns it.
type DashboardStates struct {
	healths     dashboard.ContextsHealthsInfo
	counts      dashboard.ResourcesCountInfo
	active      dashboard.ActiveResourcesCountInfo
	permissions dashboard.ContextsPermissionsInfo

	onHealthsChange     event.Emitter
	onCountsChange      event.Emitter
	onActiveChange      event.Emitter
	onPermissionsChange event.Emitter
}

// NewDashboardStates creates a cache holding empty snapshots.
func NewDashboardStates() *DashboardStates {
	return &DashboardStates{
		healths:     dashboard.ContextsHealthsInfo{Healths: []dashboard.ContextHealth{}},
		counts:      dashboard.ResourcesCountInfo{Counts: []dashboard.ResourceCount{}},
		active:      dashboard.ActiveResourcesCountInfo{Counts: []dashboard.ResourceCount{}},
		permissions: dashboard.ContextsPermissionsInfo{Permissions: []dashboard.ContextPermission{}},
	}
}

// ContextsHealths returns the latest contexts health snapshot.
func (s *DashboardStates) ContextsHealths() dashboard.ContextsHealthsInfo {
	return s.healths
}

// SetContextsHealths stores info and fires the contexts health change.
func (s *DashboardStates) SetContextsHealths(info dashboard.ContextsHealthsInfo) {
	if info.Healths == nil {
		info.Healths = []dashboard.ContextHealth{}
	}
	s.healths = info
	s.onHealthsChange.Fire()
}

// OnContextsHealthChange registers a listener for new contexts health.
func (s *DashboardStates) OnContextsHealthChange(listener func()) event.Disposable {
	return s.onHealthsChange.On(listener)
}

// ResourcesCount returns the latest resources count snapshot.
func (s *DashboardStates) ResourcesCount() dashboard.ResourcesCountInfo {
	return s.counts
}

// SetResourcesCount stores info and fires the resources count change.
func (s *DashboardStates) SetResourcesCount(info dashboard.ResourcesCountInfo) {
	if info.Counts == nil {
		info.Counts = []dashboard.ResourceCount{}
	}
	s.counts = info
	s.onCountsChange.Fire()
}

// OnResourcesCountChange registers a listener for new resources counts.
func (s *DashboardStates) OnResourcesCountChange(listener func()) event.Disposable {
	return s.onCountsChange.On(listener)
}

// ActiveResourcesCount returns the latest active resources count snapshot.
func (s *DashboardStates) ActiveResourcesCount() dashboard.ActiveResourcesCountInfo {
	return s.active
}

// SetActiveResourcesCount stores info and fires the active resources count change.
func (s *DashboardStates) SetActiveResourcesCount(info dashboard.ActiveResourcesCountInfo) {
	if info.Counts == nil {
		info.Counts = []dashboard.ResourceCount{}
	}
	s.active = info
	s.onActiveChange.Fire()
}

// OnActiveResourcesCountChange registers a listener for new active resources counts.
func (s *DashboardStates) OnActiveResourcesCountChange(listener func()) event.Disposable {
	return s.onActiveChange.On(listener)
}

// ContextsPermissions returns the latest contexts permissions snapshot.
func (s *DashboardStates) ContextsPermissions() dashboard.ContextsPermissionsInfo {
	return s.permissions
}

// SetContextsPermissions stores info and fires the contexts permissions change.
func (s *DashboardStates) SetContextsPermissions(info dashboard.ContextsPermissionsInfo) {
	if info.Permissions == nil {
		info.Permissions = []dashboard.ContextPermission{}
	}
	s.permissions = info
	s.onPermissionsChange.Fire()
}

// OnContextsPermissionsChange registers a listener for new contexts permissions.
func (s *DashboardStates) OnContextsPermissionsChange(listener func()) event.Disposable {
	return s.onPermissionsChange.On(listener)
}
