// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package conddb

import (
	"context"
	"database/sql/driver"
	"reflect"
	"testing"

	"github.com/go-delila/dgtz/internal/fakedb"
)

func init() {
	drvName = "fakedb"
}

func TestOpen(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()
}

func TestLastRunConfig(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()

	_ = fakedb.Run(context.Background(), fakedb.Rows{
		Names: []string{"runconfig"},
		Values: [][]driver.Value{
			{"DELILA2025_0"},
		},
	}, func(ctx context.Context) error {
		runcfg, err := db.LastRunConfig(ctx)
		if err != nil {
			t.Fatalf("could not retrieve last run cfg: %+v", err)
		}

		if got, want := runcfg, "DELILA2025_0"; got != want {
			t.Fatalf("invalid last run cfg: got=%q, want=%q", got, want)
		}
		return nil
	})
}

func TestLastSetupID(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()

	_ = fakedb.Run(context.Background(), fakedb.Rows{
		Names: []string{"identifier"},
		Values: [][]driver.Value{
			{uint32(42)},
		},
	}, func(ctx context.Context) error {
		setid, err := db.LastSetupID(ctx)
		if err != nil {
			t.Fatalf("could not retrieve last setup-id: %+v", err)
		}

		if got, want := setid, uint32(42); got != want {
			t.Fatalf("invalid last setup-id: got=%d, want=%d", got, want)
		}
		return nil
	})
}

func TestQueryContext(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()

	const queryLastSetupID = "SELECT identifier FROM setups ORDER BY datetime DESC LIMIT 1"

	_ = fakedb.Run(context.Background(), fakedb.Rows{
		Names: []string{"identifier"},
		Values: [][]driver.Value{
			{uint32(42)},
		},
	}, func(ctx context.Context) error {
		rows, err := db.QueryContext(ctx, queryLastSetupID)
		if err != nil {
			t.Fatalf("could not execute query %q: %+v", queryLastSetupID, err)
		}
		defer rows.Close()

		var setid uint32
		for rows.Next() {
			err = rows.Scan(&setid)
			if err != nil {
				t.Fatalf("could not scan setup-id: %+v", err)
			}
		}

		if err := rows.Err(); err != nil {
			t.Fatalf("could not scan setup-id: %+v", err)
		}

		if got, want := setid, uint32(42); got != want {
			t.Fatalf("invalid last setup-id: got=%d, want=%d", got, want)
		}
		return nil
	})
}

func TestModuleConfig(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()

	want := []Param{
		{Key: "/par/ch/0..63/ChEnable", Value: "true"},
		{Key: "/par/ch/0..63/DCOffset", Value: "20"},
		{Key: "/par/ch/0/TriggerThr", Value: "300"},
	}

	_ = fakedb.Run(context.Background(), fakedb.Rows{
		Names: []string{"name", "value"},
		Values: [][]driver.Value{
			{want[0].Key, want[0].Value},
			{want[1].Key, want[1].Value},
			{want[2].Key, want[2].Value},
		},
	}, func(ctx context.Context) error {
		cfg, err := db.ModuleConfig(ctx, "DELILA2025_0", 1)
		if err != nil {
			t.Fatalf("could not retrieve module cfg: %+v", err)
		}

		if got, want := cfg, want; !reflect.DeepEqual(got, want) {
			t.Fatalf("invalid module cfg:\ngot= %#v\nwant=%#v", got, want)
		}
		return nil
	})
}

func TestModules(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()

	want := []Module{
		{
			ID:     1,
			ModID:  0,
			Name:   "dig-hall-A",
			URL:    "dig2://caen/usb/21432",
			FWType: "DPP_PSD",
			Model:  "2745",
			Serial: "21432",
		},
		{
			ID:     2,
			ModID:  1,
			Name:   "dig-hall-B",
			URL:    "dig1://caen/optical/0",
			FWType: "DPP-PSD",
			Model:  "1730",
			Serial: "10754",
		},
	}

	_ = fakedb.Run(context.Background(), fakedb.Rows{
		Names: []string{
			"identifier", "mod_id", "name", "url",
			"fwtype", "model", "serial",
		},
		Values: [][]driver.Value{
			{want[0].ID, want[0].ModID, want[0].Name, want[0].URL, want[0].FWType, want[0].Model, want[0].Serial},
			{want[1].ID, want[1].ModID, want[1].Name, want[1].URL, want[1].FWType, want[1].Model, want[1].Serial},
		},
	}, func(ctx context.Context) error {
		mods, err := db.Modules(ctx)
		if err != nil {
			t.Fatalf("could not retrieve modules: %+v", err)
		}

		if got, want := mods, want; !reflect.DeepEqual(got, want) {
			t.Fatalf("invalid modules:\ngot= %#v\nwant=%#v", got, want)
		}

		if got, want := mods[0].String(),
			`module{id: 1, mod: 0, name: "dig-hall-A", url: "dig2://caen/usb/21432", fw: "DPP_PSD", model: "2745", serial: "21432"}`; got != want {
			t.Fatalf("invalid module display:\ngot= %s\nwant=%s", got, want)
		}
		return nil
	})
}
