// Package store persists rule-source entries — the stored, schema-valid
// entries declaring access_control_profile and its flavor markers — in
// PostgreSQL, and rehydrates an access.Engine from them. The engine
// itself owns no persisted state: this package is the surrounding
// server component that enumerates stored rule-source entries and calls
// the engine's update transactions.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	jsoniter "github.com/json-iterator/go"
	_ "github.com/lib/pq"

	"github.com/nexusdirectory/accessd/internal/access"
	"github.com/nexusdirectory/accessd/internal/common/logger"
)

var ruleJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// sqlIdentifierPattern guards the configurable table name against SQL
// identifier injection, since it cannot be passed as a bound parameter.
var sqlIdentifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// RuleEntryStore persists rule-source entries as (uuid, attrs jsonb) rows.
type RuleEntryStore struct {
	db      *sql.DB
	dialect goqu.DialectWrapper
	table   string
}

// NewRuleEntryStore returns a store backed by db, reading/writing the
// named table. table must be a bare SQL identifier.
func NewRuleEntryStore(db *sql.DB, table string) (*RuleEntryStore, error) {
	if !sqlIdentifierPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid rule table name %q", table)
	}
	return &RuleEntryStore{db: db, dialect: goqu.Dialect("postgres"), table: table}, nil
}

// EnsureTable creates the rule-source table if it does not already exist.
func (s *RuleEntryStore) EnsureTable(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		uuid TEXT PRIMARY KEY,
		attrs JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, s.table)
	_, err := s.db.ExecContext(ctx, stmt)
	return err
}

// List returns every stored rule-source entry as a valid access.Entry.
func (s *RuleEntryStore) List(ctx context.Context) ([]access.Entry, error) {
	query, _, err := s.dialect.From(s.table).Select("uuid", "attrs").ToSQL()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []access.Entry
	for rows.Next() {
		var uuid string
		var raw []byte
		if err := rows.Scan(&uuid, &raw); err != nil {
			return nil, err
		}
		var attrs map[string][]string
		if err := ruleJSON.Unmarshal(raw, &attrs); err != nil {
			return nil, fmt.Errorf("decode rule entry %s: %w", uuid, err)
		}
		entry, err := access.NewValidEntry(uuid, attrs)
		if err != nil {
			return nil, err
		}
		out = append(out, entry.AsCommitted(0))
	}
	return out, rows.Err()
}

// ReplaceAll atomically replaces the entire table contents with entries,
// the storage-layer analogue of the engine's own wholesale flavor
// replacement.
func (s *RuleEntryStore) ReplaceAll(ctx context.Context, entries []access.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", s.table)); err != nil {
		return err
	}

	insert := s.dialect.Insert(s.table)
	for _, e := range entries {
		raw, err := ruleJSON.Marshal(e.Attrs())
		if err != nil {
			return err
		}
		query, args, err := insert.Rows(goqu.Record{"uuid": e.UUID(), "attrs": raw}).ToSQL()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Rehydrate lists every stored rule-source entry, parses it with
// validator, and publishes the resulting rules into engine via a single
// write transaction. Parser errors are logged and the offending entry is
// skipped; the rest of the rule set loads regardless.
func Rehydrate(ctx context.Context, s *RuleEntryStore, engine *access.Engine, validator access.SchemaValidator) error {
	entries, err := s.List(ctx)
	if err != nil {
		return fmt.Errorf("list rule entries: %w", err)
	}

	var searchRules []access.SearchRule
	var createRules []access.CreateRule
	var modifyRules []access.ModifyRule
	var deleteRules []access.DeleteRule

	for _, e := range entries {
		parsed, err := access.ParseRule(e, validator)
		if err != nil {
			logger.LogError("rehydrate rule entry "+e.UUID(), err)
			continue
		}
		if parsed.Search != nil {
			searchRules = append(searchRules, *parsed.Search)
		}
		if parsed.Create != nil {
			createRules = append(createRules, *parsed.Create)
		}
		if parsed.Modify != nil {
			modifyRules = append(modifyRules, *parsed.Modify)
		}
		if parsed.Delete != nil {
			deleteRules = append(deleteRules, *parsed.Delete)
		}
	}

	txn := engine.BeginWrite()
	txn.UpdateSearch(searchRules)
	txn.UpdateCreate(createRules)
	txn.UpdateModify(modifyRules)
	txn.UpdateDelete(deleteRules)
	txn.Commit()

	logger.LogInfo(fmt.Sprintf("rehydrated %d search, %d create, %d modify, %d delete rules",
		len(searchRules), len(createRules), len(modifyRules), len(deleteRules)))
	return nil
}
