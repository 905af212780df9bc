// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/go-delila/dgtz/conddb"
	_ "github.com/go-sql-driver/mysql"
)

const (
	dbname = "delilasrv"
)

func main() {
	log.SetPrefix("dgtz-sql: ")
	log.SetFlags(0)

	var (
		runcfg = flag.String("run-cfg", "", "run configuration to inspect")
		mod    = flag.Int("mod", 0, "module number to inspect")
	)

	flag.Parse()

	log.Printf("mod: %02d", *mod)
	log.Printf("cfg: %q", *runcfg)

	db, err := conddb.Open(dbname)
	if err != nil {
		log.Fatalf("could not open conditions db: %+v", err)
	}
	defer db.Close()

	err = doQuery(db, *runcfg, *mod)
	if err != nil {
		log.Fatalf("could not do query: %+v", err)
	}
}

func doQuery(db *conddb.DB, runConfig string, modID int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if runConfig == "" {
		v, err := db.LastRunConfig(ctx)
		if err != nil {
			return fmt.Errorf("could not get last run configuration: %w", err)
		}
		runConfig = v
		log.Printf("runconfig: %q", runConfig)
	}

	setup, err := db.LastSetupID(ctx)
	if err != nil {
		return fmt.Errorf("could not get last setup id: %w", err)
	}
	log.Printf("setup: %d", setup)

	mods, err := db.Modules(ctx)
	if err != nil {
		return fmt.Errorf("could not get modules: %w", err)
	}
	log.Printf("modules: %d", len(mods))
	for i, m := range mods {
		log.Printf("row[%d]: %v", i, m)
	}

	params, err := db.ModuleConfig(ctx, runConfig, uint8(modID))
	if err != nil {
		return fmt.Errorf("could not get module cfg (run=%q, mod=%02d): %w",
			runConfig, uint8(modID), err,
		)
	}
	log.Printf("params: %d", len(params))
	for _, p := range params {
		log.Printf(">>> %s %s", p.Key, p.Value)
	}

	return nil
}
