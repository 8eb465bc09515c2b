package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	chstore "solana-stake-desk/internal/storage/clickhouse"
)

// RunClickhouseMigrations creates the dsn's database if needed, applies every
// embedded ClickHouse file and returns a connection to that database.
func RunClickhouseMigrations(ctx context.Context, dsn string) (*chstore.Conn, error) {
	db, err := chstore.Database(dsn)
	if err != nil {
		return nil, err
	}

	admin, err := chstore.NewConnWithDatabase(ctx, dsn, "")
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse admin: %w", err)
	}
	err = admin.Exec(ctx, "CREATE DATABASE IF NOT EXISTS "+quoteIdent(db))
	admin.Close()
	if err != nil {
		return nil, fmt.Errorf("create database %s: %w", db, err)
	}

	conn, err := chstore.NewConnWithDatabase(ctx, dsn, db)
	if err != nil {
		return nil, err
	}
	if err := ApplyClickhouse(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// execer is the subset of a ClickHouse connection used to apply migrations.
type execer interface {
	Exec(ctx context.Context, query string, args ...any) error
}

// ApplyClickhouse runs every embedded ClickHouse file on conn. The files only use
// IF NOT EXISTS forms, so all of them run every time.
func ApplyClickhouse(ctx context.Context, conn execer) error {
	files, err := sqlFiles(ClickhouseFS, "clickhouse")
	if err != nil {
		return err
	}

	for _, file := range files {
		data, err := fs.ReadFile(ClickhouseFS, "clickhouse/"+file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		stmts, err := statements(string(data))
		if err != nil {
			return fmt.Errorf("parse migration %s: %w", file, err)
		}
		// The native protocol accepts one statement per Exec.
		for i, stmt := range stmts {
			if err := conn.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s statement %d: %w", file, i+1, err)
			}
		}
	}
	return nil
}

// statements splits a SQL script on semicolons outside single-quoted strings
// and drops -- line comments. An unterminated string is an error.
func statements(sql string) ([]string, error) {
	var (
		stmts   []string
		cur     strings.Builder
		quoted  bool
		comment bool
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			stmts = append(stmts, s)
		}
		cur.Reset()
	}

	for i := 0; i < len(sql); i++ {
		ch := sql[i]
		switch {
		case comment:
			if ch == '\n' {
				comment = false
				cur.WriteByte(ch)
			}
		case quoted:
			cur.WriteByte(ch)
			if ch == '\\' && i+1 < len(sql) {
				i++
				cur.WriteByte(sql[i])
			} else if ch == '\'' {
				quoted = false
			}
		case ch == '\'':
			quoted = true
			cur.WriteByte(ch)
		case ch == '-' && i+1 < len(sql) && sql[i+1] == '-':
			comment = true
			i++
		case ch == ';':
			flush()
		default:
			cur.WriteByte(ch)
		}
	}
	if quoted {
		return nil, fmt.Errorf("unterminated string literal")
	}
	flush()
	return stmts, nil
}

func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
