package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/vistoria/internal/dbx"
	"github.com/dmitrijs2005/vistoria/internal/server/repositories/cardinspections"
	"github.com/dmitrijs2005/vistoria/internal/server/repositories/cards"
	"github.com/dmitrijs2005/vistoria/internal/server/repositories/inspections"
	"github.com/dmitrijs2005/vistoria/internal/server/repositories/photos"
)

// RepositoryManager hands out repositories bound to a dbx.DBTX so the same
// code runs against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Cards(db dbx.DBTX) cards.Repository
	Inspections(db dbx.DBTX) inspections.Repository
	CardInspections(db dbx.DBTX) cardinspections.Repository
	Photos(db dbx.DBTX) photos.Repository
}
