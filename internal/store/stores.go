package store

// Stores bundles the per-entity stores behind one wiring point so the server
// can switch between backends without touching the engines.
type Stores struct {
	Organizations OrganizationStore
	Users         UserStore
	Invitations   InvitationStore
	Projects      ProjectStore
	Targets       TargetStore
	Tasks         TaskStore
	Standups      StandupStore
}
