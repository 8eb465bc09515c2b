// Package migrations applies the embedded schema for the journal (PostgreSQL)
// and the snapshot analytics store (ClickHouse).
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// PostgresFS embeds all PostgreSQL migration files.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds all ClickHouse migration files.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS

// sqlFiles lists the .sql files of dir in lexical order.
func sqlFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s migrations: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
