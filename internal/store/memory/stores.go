package memory

import "github.com/standflow/standflow/internal/store"

// NewStores wires up the full set of in-memory stores with the
// cross-references they need for organization scoping and column-deletion
// reassignment.
func NewStores() *store.Stores {
	standups := NewStandupStore()
	projects := NewProjectStore(standups)
	tasks := NewTaskStore()
	targets := NewTargetStore(projects, tasks)

	return &store.Stores{
		Organizations: NewOrganizationStore(),
		Users:         NewUserStore(),
		Invitations:   NewInvitationStore(),
		Projects:      projects,
		Targets:       targets,
		Tasks:         tasks,
		Standups:      standups,
	}
}
