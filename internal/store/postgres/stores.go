package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/standflow/standflow/internal/store"
)

// NewStores wires up the full set of PostgreSQL stores over a shared pool.
func NewStores(pool *pgxpool.Pool) *store.Stores {
	return &store.Stores{
		Organizations: NewOrganizationStore(pool),
		Users:         NewUserStore(pool),
		Invitations:   NewInvitationStore(pool),
		Projects:      NewProjectStore(pool),
		Targets:       NewTargetStore(pool),
		Tasks:         NewTaskStore(pool),
		Standups:      NewStandupStore(pool),
	}
}
