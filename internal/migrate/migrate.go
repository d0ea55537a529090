// Package migrate creates the credential_slots table that holds the shared
// bearer token when ac runs with -store=postgres.
package migrate

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/and161185/academy-client/migrations"
)

// VersionTable is goose's bookkeeping table. It is prefixed so the slot table
// can live in a database that other services migrate with goose too.
const VersionTable = "academy_client_goose_version"

// Up opens dsn and brings the credential slot schema up to date.
func Up(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return UpDB(ctx, db)
}

// UpDB applies the embedded slot migrations on an already opened database.
func UpDB(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetTableName(VersionTable)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}
