// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package conddb holds types to describe the condition and configuration
// database for the digitizer DAQ.
package conddb // import "github.com/go-delila/dgtz/conddb"

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

const (
	host = "localhost"
)

var (
	usr = "username"
	pwd = "s3cr3t"

	drvName = "mysql"
)

// DB exposes convenience methods to easily retrieve conditions data
// and configuration data from the DAQ database.
type DB struct {
	db   *sql.DB
	name string // name of the DAQ database
}

// Open opens a connection to the DAQ database dbname.
func Open(dbname string) (*DB, error) {
	db, err := sql.Open(drvName, dsn(dbname))
	if err != nil {
		return nil, fmt.Errorf("conddb: could not open %q db: %w", dbname, err)
	}

	err = ping(db, dbname)
	if err != nil {
		return nil, fmt.Errorf("conddb: could not ping %q db: %w", dbname, err)
	}

	return &DB{db: db, name: dbname}, nil
}

func dsn(db string) string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s", usr, pwd, host, db)
}

func ping(db *sql.DB, dbname string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("conddb: could not ping %q db: %w", dbname, err)
	}

	return nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// LastRunConfig returns the name of the most recent run configuration.
func (db *DB) LastRunConfig(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	runcfg := ""
	rows, err := db.db.QueryContext(
		ctx,
		"SELECT runconfig FROM setups ORDER BY datetime DESC LIMIT 1",
	)
	if err != nil {
		return runcfg, fmt.Errorf("conddb: could not query run cfg: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		err = rows.Scan(&runcfg)
		if err != nil {
			return runcfg, fmt.Errorf("conddb: could not get run cfg value: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return runcfg, fmt.Errorf("conddb: could not scan db for run cfg: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return runcfg, fmt.Errorf("conddb: context error while retrieving run cfg: %w", err)
	}

	return runcfg, nil
}

// LastSetupID returns the identifier of the most recent setup.
func (db *DB) LastSetupID(ctx context.Context) (uint32, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var setid uint32
	rows, err := db.db.QueryContext(
		ctx,
		"SELECT identifier FROM setups ORDER BY datetime DESC LIMIT 1",
	)
	if err != nil {
		return setid, fmt.Errorf("conddb: could not query setup-id: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		err = rows.Scan(&setid)
		if err != nil {
			return setid, fmt.Errorf("conddb: could not get setup-id value: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return setid, fmt.Errorf("conddb: could not scan db for setup-id: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return setid, fmt.Errorf("conddb: context error while retrieving setup-id: %w", err)
	}

	return setid, nil
}

// ModuleConfig returns the device parameters of module modID in the
// named run configuration, in application order.
func (db *DB) ModuleConfig(ctx context.Context, runConfig string, modID uint8) ([]Param, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var cfg []Param
	rows, err := db.db.QueryContext(
		ctx,
		`
SELECT params.name, params.value FROM params
JOIN runconfig_params ON params.identifier=runconfig_params.param
JOIN runconfig        ON runconfig.identifier=runconfig_params.runconfig
WHERE (
	runconfig.name=? AND params.mod_id=?
)
ORDER BY params.rank
`,
		runConfig, modID,
	)
	if err != nil {
		return cfg, fmt.Errorf("conddb: could not run module cfg query: %w", err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		var p Param
		err = rows.Scan(&p.Key, &p.Value)
		if err != nil {
			return cfg, fmt.Errorf("conddb: could not scan row %d for module cfg: %w", i, err)
		}
		i++

		cfg = append(cfg, p)
	}

	if err := rows.Err(); err != nil {
		return cfg, fmt.Errorf("conddb: could not scan db for module cfg: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return cfg, fmt.Errorf("conddb: context error while retrieving module cfg: %w", err)
	}

	return cfg, nil
}

// Modules returns the registry of digitizer boards.
func (db *DB) Modules(ctx context.Context) ([]Module, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var mods []Module
	rows, err := db.db.QueryContext(ctx, "SELECT * FROM modules")
	if err != nil {
		return mods, fmt.Errorf(
			"conddb: could not run modules query: %w",
			err,
		)
	}
	defer rows.Close()

	for rows.Next() {
		var m Module
		err = rows.Scan(&m.ID, &m.ModID, &m.Name, &m.URL, &m.FWType, &m.Model, &m.Serial)
		if err != nil {
			return mods, fmt.Errorf(
				"conddb: could not scan modules: %w",
				err,
			)
		}
		mods = append(mods, m)
	}

	if err := rows.Err(); err != nil {
		return mods, fmt.Errorf(
			"conddb: could not scan db for modules: %w",
			err,
		)
	}

	if err := ctx.Err(); err != nil {
		return mods, fmt.Errorf(
			"conddb: context error while retrieving modules: %w",
			err,
		)
	}

	return mods, nil
}
