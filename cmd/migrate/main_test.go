package main

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilename(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  int
		name     string
	}{
		{"0001_create_capex_pagos.sql", true, 1, "create_capex_pagos"},
		{"0012_add_index.sql", true, 12, "add_index"},
		{"001_invalid.sql", false, 0, ""},        // wrong number format
		{"0001_test", false, 0, ""},              // missing .sql
		{"0001.sql", false, 0, ""},               // missing name
		{"invalid_0001_test.sql", false, 0, ""}, // wrong order
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, ok := parseFilename(tt.filename)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.version, version)
			assert.Equal(t, tt.name, name)
		})
	}
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestReadMigrations(t *testing.T) {
	ddl := "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.capex_pagos` (id STRING);"
	dir := writeFiles(t, map[string]string{
		"0002_second.sql": "SELECT 2;",
		"0001_first.sql":  ddl,
		"README.md":       "not a migration",
	})

	migrations, err := readMigrations(dir, target{project: "proj", dataset: "cxp_vzla"}, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "first", migrations[0].Name)
	assert.Equal(t, "CREATE TABLE `proj.cxp_vzla.capex_pagos` (id STRING);", migrations[0].SQL)
	assert.Equal(t, fmt.Sprintf("%x", sha256.Sum256([]byte(ddl))), migrations[0].Checksum)
	assert.Equal(t, 2, migrations[1].Version)
}

func TestReadMigrations_ChecksumIgnoresTarget(t *testing.T) {
	dir := writeFiles(t, map[string]string{"0001_first.sql": "SELECT * FROM `{{DATASET_ID}}.t`;"})

	a, err := readMigrations(dir, target{project: "p1", dataset: "d1"}, zerolog.Nop())
	require.NoError(t, err)
	b, err := readMigrations(dir, target{project: "p2", dataset: "d2"}, zerolog.Nop())
	require.NoError(t, err)

	assert.NotEqual(t, a[0].SQL, b[0].SQL)
	assert.Equal(t, a[0].Checksum, b[0].Checksum)
}

func TestReadMigrations_DuplicateVersion(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"0001_first.sql": "SELECT 1;",
		"0001_other.sql": "SELECT 1;",
	})

	_, err := readMigrations(dir, target{project: "p", dataset: "d"}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate migration version 0001")
}

func TestPendingMigrations(t *testing.T) {
	migrations := []Migration{
		{Version: 1, Name: "first", Checksum: "aaa"},
		{Version: 2, Name: "second", Checksum: "bbb"},
		{Version: 3, Name: "third", Checksum: "ccc"},
	}

	t.Run("skips applied", func(t *testing.T) {
		pending, err := pendingMigrations(migrations, []AppliedMigration{
			{Version: 1, Checksum: "aaa"},
			{Version: 2},
		})
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, 3, pending[0].Version)
	})

	t.Run("edited migration", func(t *testing.T) {
		_, err := pendingMigrations(migrations, []AppliedMigration{{Version: 2, Checksum: "zzz"}})
		assert.True(t, errors.Is(err, errChecksumMismatch))
	})
}

func TestRepositoryMigrations(t *testing.T) {
	dir, err := locateDir("migrations/bigquery")
	require.NoError(t, err)

	migrations, err := readMigrations(dir, target{project: "proj", dataset: "cxp_vzla"}, zerolog.Nop())
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version, "migrations are numbered without gaps")
		assert.False(t, strings.Contains(m.SQL, "{{"), "%s has unreplaced placeholders", m.Filename)
	}
}
