package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/lox/climateapi/internal/store"
)

// writeDataset builds a dataset file using only the drivers the binary
// itself links in.
func writeDataset(t *testing.T, ddl ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hawaii.sqlite")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	for _, stmt := range ddl {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
	return path
}

const (
	measurementTable = `CREATE TABLE measurement (id INTEGER PRIMARY KEY, station TEXT, date TEXT, prcp FLOAT, tobs FLOAT)`
	stationTable     = `CREATE TABLE station (id INTEGER PRIMARY KEY, station TEXT, name TEXT, latitude FLOAT, longitude FLOAT, elevation FLOAT)`
)

func TestOpenDataset(t *testing.T) {
	path := writeDataset(t,
		measurementTable,
		stationTable,
		`INSERT INTO station (station, name, latitude, longitude, elevation) VALUES ('USC1', 'Station A', 21.2, -157.8, 3.0)`,
		`INSERT INTO measurement (station, date, prcp, tobs) VALUES ('USC1', '2017-08-23', 0.45, 70)`,
	)

	ctx := context.Background()
	st, err := openDataset(ctx, path)
	if err != nil {
		t.Fatalf("openDataset: %v", err)
	}
	defer st.Close()

	err = st.WithSession(ctx, func(ss *store.Session) error {
		latest, err := ss.LatestObservedDate(ctx)
		if err != nil {
			return err
		}
		if got := latest.Format("2006-01-02"); got != "2017-08-23" {
			t.Errorf("latest date = %s, want 2017-08-23", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithSession: %v", err)
	}
}

func TestOpenDataset_SchemaMismatch(t *testing.T) {
	path := writeDataset(t, measurementTable)

	_, err := openDataset(context.Background(), path)
	if !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("err = %v, want ErrSchemaMismatch", err)
	}
	if !strings.Contains(err.Error(), "table station") {
		t.Errorf("err = %v, want it to name the missing table", err)
	}
}

func TestOpenDataset_Missing(t *testing.T) {
	_, err := openDataset(context.Background(), filepath.Join(t.TempDir(), "missing.sqlite"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want os.ErrNotExist", err)
	}
}

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, parserOptions()...)
	if err != nil {
		t.Fatalf("kong.New: %v", err)
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		t.Fatalf("Parse(%q): %v", args, err)
	}
	return &cli, kctx
}

func TestCLI_LoadsDefaultEnvFile(t *testing.T) {
	clearEnv(t, "CLIMATE_DB", "CLIMATE_ADDR")
	dir := t.TempDir()
	t.Chdir(dir)

	dbPath := filepath.Join(dir, "data", "climate.sqlite")
	env := "CLIMATE_DB=" + dbPath + "\nCLIMATE_ADDR=:9090\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o644); err != nil {
		t.Fatal(err)
	}

	cli, kctx := parse(t)
	if kctx.Command() != "serve" {
		t.Errorf("command = %q, want serve", kctx.Command())
	}
	if cli.DB != dbPath {
		t.Errorf("DB = %q, want %q", cli.DB, dbPath)
	}
	if cli.Serve.Addr != ":9090" {
		t.Errorf("Addr = %q, want :9090", cli.Serve.Addr)
	}
}

func TestCLI_MissingEnvFileIsSkipped(t *testing.T) {
	clearEnv(t, "CLIMATE_DB")
	t.Chdir(t.TempDir())

	cli, _ := parse(t, "check")
	if string(cli.EnvFile) != ".env" {
		t.Errorf("EnvFile = %q, want .env", cli.EnvFile)
	}
	if !strings.HasSuffix(cli.DB, filepath.Join("Resources", "hawaii.sqlite")) {
		t.Errorf("DB = %q, want the built-in default", cli.DB)
	}
}

func TestCLI_ExplicitEnvFile(t *testing.T) {
	clearEnv(t, "CLIMATE_DB")
	dir := t.TempDir()
	t.Chdir(t.TempDir())

	dbPath := filepath.Join(dir, "other.sqlite")
	envPath := filepath.Join(dir, "climate.env")
	if err := os.WriteFile(envPath, []byte("CLIMATE_DB="+dbPath+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cli, _ := parse(t, "--env-file", envPath, "check")
	if cli.DB != dbPath {
		t.Errorf("DB = %q, want %q", cli.DB, dbPath)
	}
}
