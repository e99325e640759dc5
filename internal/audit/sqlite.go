package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ppiankov/clauseguard/internal/model"
	"github.com/ppiankov/clauseguard/internal/util"
)

// timestampLayout is fixed-width so that text ordering is chronological
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

const createAuditTable = `CREATE TABLE IF NOT EXISTS audit_log (
	id TEXT PRIMARY KEY,
	timestamp TEXT NOT NULL,
	report_id TEXT NOT NULL,
	source TEXT,
	input_hash TEXT NOT NULL,
	catalog_version TEXT,
	catalog_hash TEXT,
	language TEXT,
	contract_type TEXT,
	composite_score INTEGER NOT NULL,
	risk_band TEXT NOT NULL,
	clause_count INTEGER NOT NULL,
	finding_count INTEGER NOT NULL,
	gap_count INTEGER NOT NULL,
	rule_ids TEXT,
	llm_used INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL
)`

// SQLiteSink stores records in an audit_log table
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens the database at path (":memory:" works for tests)
// and creates the table if needed
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	if path != ":memory:" {
		path = util.ExpandHome(path)
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0700); err != nil {
				return nil, fmt.Errorf("create audit dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	// One connection keeps :memory: databases alive and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createAuditTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create audit table: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

// Write inserts a record
func (s *SQLiteSink) Write(ctx context.Context, rec Record) error {
	ruleIDs, err := json.Marshal(rec.RuleIDs)
	if err != nil {
		return fmt.Errorf("marshal rule ids: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, timestamp, report_id, source, input_hash, catalog_version, catalog_hash,
			language, contract_type, composite_score, risk_band, clause_count, finding_count, gap_count,
			rule_ids, llm_used, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Timestamp.UTC().Format(timestampLayout), rec.ReportID, rec.Source, rec.InputHash,
		rec.CatalogVersion, rec.CatalogHash, string(rec.Language), string(rec.ContractType),
		rec.CompositeScore, string(rec.RiskBand), rec.ClauseCount, rec.FindingCount, rec.GapCount,
		string(ruleIDs), rec.LLMUsed, rec.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

// Recent returns up to limit of the newest records, newest first
func (s *SQLiteSink) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, report_id, source, input_hash, catalog_version, catalog_hash,
			language, contract_type, composite_score, risk_band, clause_count, finding_count, gap_count,
			rule_ids, llm_used, duration_ms
		FROM audit_log ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		var (
			rec                             Record
			ts, ruleIDs                     string
			language, contractType, band    string
			source, catalogVer, catalogHash sql.NullString
		)
		if err := rows.Scan(&rec.ID, &ts, &rec.ReportID, &source, &rec.InputHash, &catalogVer, &catalogHash,
			&language, &contractType, &rec.CompositeScore, &band, &rec.ClauseCount, &rec.FindingCount,
			&rec.GapCount, &ruleIDs, &rec.LLMUsed, &rec.DurationMS); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		rec.Timestamp, _ = time.Parse(timestampLayout, ts)
		rec.Source = source.String
		rec.CatalogVersion = catalogVer.String
		rec.CatalogHash = catalogHash.String
		rec.Language = model.Language(language)
		rec.ContractType = model.ContractType(contractType)
		rec.RiskBand = model.RiskBand(band)
		if ruleIDs != "" && ruleIDs != "null" {
			_ = json.Unmarshal([]byte(ruleIDs), &rec.RuleIDs)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit log: %w", err)
	}
	return out, nil
}

// Close closes the database
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
