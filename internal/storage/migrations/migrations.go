// Package migrations applies the embedded schema for each storage backend.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"epic-nft-gallery/internal/logging"
	chstore "epic-nft-gallery/internal/storage/clickhouse"
	"epic-nft-gallery/internal/storage/postgres"
)

//go:embed postgres/*.sql clickhouse/*.sql
var schema embed.FS

// script is one embedded .sql file.
type script struct {
	name string
	sql  string
}

// scripts returns the non-empty .sql files under dir sorted by name.
func scripts(dir string) ([]script, error) {
	entries, err := fs.ReadDir(schema, dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s migrations: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var out []script
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		data, err := fs.ReadFile(schema, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", e.Name(), err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		out = append(out, script{name: e.Name(), sql: string(data)})
	}
	return out, nil
}

// RunPostgresMigrations applies the gallery schema. Every script is idempotent,
// so this runs on each start.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := scripts("postgres")
	if err != nil {
		return err
	}
	log := logging.Module("migrations")
	for _, f := range files {
		if _, err := pool.Exec(ctx, f.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", f.name, err)
		}
		log.WithField("file", f.name).Debug("postgres migration applied")
	}
	return nil
}

// RunClickhouseMigrations creates the DSN's database when missing, applies the
// pass schema and returns a connection bound to that database.
func RunClickhouseMigrations(ctx context.Context, dsn string) (*chstore.Conn, error) {
	db, err := chstore.Database(dsn)
	if err != nil {
		return nil, err
	}
	if err := ensureDatabase(ctx, dsn, db); err != nil {
		return nil, err
	}

	files, err := scripts("clickhouse")
	if err != nil {
		return nil, err
	}

	conn, err := chstore.NewConn(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse %s: %w", db, err)
	}
	log := logging.Module("migrations")
	for _, f := range files {
		stmts, err := splitStatements(f.sql)
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("parse migration %s: %w", f.name, err)
		}
		// The native protocol runs one statement per Exec.
		for _, stmt := range stmts {
			if err := conn.Exec(ctx, stmt); err != nil {
				_ = conn.Close()
				return nil, fmt.Errorf("apply migration %s: %w", f.name, err)
			}
		}
		log.WithFields(logrus.Fields{"file": f.name, "statements": len(stmts)}).
			Debug("clickhouse migration applied")
	}
	return conn, nil
}

func ensureDatabase(ctx context.Context, dsn, db string) error {
	admin, err := chstore.NewConn(ctx, dsn, chstore.WithDatabase(""))
	if err != nil {
		return fmt.Errorf("connect clickhouse server: %w", err)
	}
	defer admin.Close()

	if err := admin.Exec(ctx, "CREATE DATABASE IF NOT EXISTS "+quoteIdent(db)); err != nil {
		return fmt.Errorf("create database %s: %w", db, err)
	}
	return nil
}

func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// splitStatements cuts a script at top-level semicolons. Semicolons inside
// quoted strings or comments do not split. Comments are dropped.
func splitStatements(input string) ([]string, error) {
	var (
		stmts []string
		cur   strings.Builder
		quote byte
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			stmts = append(stmts, s)
		}
		cur.Reset()
	}

	for i := 0; i < len(input); i++ {
		ch := input[i]
		if quote != 0 {
			cur.WriteByte(ch)
			switch {
			case ch == '\\' && i+1 < len(input):
				i++
				cur.WriteByte(input[i])
			case ch == quote && i+1 < len(input) && input[i+1] == quote:
				i++
				cur.WriteByte(input[i])
			case ch == quote:
				quote = 0
			}
			continue
		}

		switch {
		case ch == '\'' || ch == '"' || ch == '`':
			quote = ch
			cur.WriteByte(ch)
		case ch == '-' && strings.HasPrefix(input[i:], "--"):
			end := strings.IndexByte(input[i:], '\n')
			if end < 0 {
				i = len(input)
			} else {
				i += end
				cur.WriteByte('\n')
			}
		case ch == '/' && strings.HasPrefix(input[i:], "/*"):
			end := strings.Index(input[i+2:], "*/")
			if end < 0 {
				return nil, fmt.Errorf("unterminated block comment at offset %d", i)
			}
			i += end + 3
			cur.WriteByte(' ')
		case ch == ';':
			flush()
		default:
			cur.WriteByte(ch)
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	flush()
	return stmts, nil
}
