package postgres

import (
	"context"
	"database/sql"
	_ "embed"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskreg/pkg/domain/interfaces"

	// registers the "postgres" database/sql driver
	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

// Schema returns the DDL applied by Migrate
func Schema() string {
	return schemaSQL
}

type Postgres struct {
	db             *sql.DB
	report         *reportRepository
	mergeSelection *mergeSelectionRepository
}

var _ interfaces.Repository = &Postgres{}

func New(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open postgres connection")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to connect to postgres")
	}

	return &Postgres{
		db:             db,
		report:         &reportRepository{db: db},
		mergeSelection: &mergeSelectionRepository{db: db},
	}, nil
}

// Migrate creates tables and indexes that do not exist yet
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schemaSQL); err != nil {
		return goerr.Wrap(err, "failed to apply schema")
	}
	return nil
}

func (p *Postgres) Report() interfaces.ReportRepository {
	return p.report
}

func (p *Postgres) MergeSelection() interfaces.MergeSelectionRepository {
	return p.mergeSelection
}

func (p *Postgres) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}
