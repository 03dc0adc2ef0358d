package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/avolkov/hopweaver/internal/model"
)

// Sentinel errors surfaced by store operations. Callers check them with
// errors.Is; the wrapping message carries the operation context.
var (
	// ErrStorageUnavailable means the database file could not be opened
	// or the medium rejected the statement.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrCorruptRecord means a stored serialized payload failed to
	// deserialize. It is surfaced, never silently replaced with defaults.
	ErrCorruptRecord = errors.New("corrupt record")
)

// Store is the durable claim record store backed by SQLite. It owns all
// persistent state: web pages, per-URL claim extractions, curated claim
// records, annotated questions, and the two search caches.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures the schema exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("%w: create directory: %v", ErrStorageUnavailable, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", ErrStorageUnavailable, err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: set WAL mode: %v", ErrStorageUnavailable, err)
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: initialize schema: %v", ErrStorageUnavailable, err)
	}

	return s, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS web_page (
			url      TEXT PRIMARY KEY,
			title    TEXT,
			date     TEXT,
			snippet  TEXT,
			content  TEXT,
			source   TEXT,
			language TEXT,
			category TEXT,
			country  TEXT
		);

		CREATE TABLE IF NOT EXISTS claim (
			url         TEXT PRIMARY KEY,
			claims_json TEXT,
			FOREIGN KEY (url) REFERENCES web_page(url)
		);

		CREATE TABLE IF NOT EXISTS claim_data (
			claim    TEXT PRIMARY KEY,
			topic    TEXT,
			evidence TEXT,
			target   TEXT,
			url      TEXT,
			category TEXT
		);

		CREATE TABLE IF NOT EXISTS annotated_data (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			query     TEXT,
			answer    TEXT,
			annotator TEXT,
			records   TEXT,
			timestamp TEXT
		);

		CREATE TABLE IF NOT EXISTS google_search (
			query     TEXT PRIMARY KEY,
			result    TEXT,
			timestamp TEXT
		);

		CREATE TABLE IF NOT EXISTS news_search (
			query     TEXT PRIMARY KEY,
			result    TEXT,
			timestamp TEXT
		);
	`)
	return err
}

// GetPageByURL returns the cached page for url, or nil when absent
func (s *Store) GetPageByURL(url string) (*model.WebPage, error) {
	row := s.db.QueryRow(`
		SELECT url, title, date, snippet, content, source, language, category, country
		FROM web_page WHERE url = ?`, url)

	var p model.WebPage
	err := row.Scan(&p.URL, &p.Title, &p.Date, &p.Snippet, &p.Content,
		&p.Source, &p.Language, &p.Category, &p.Country)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query web_page: %v", ErrStorageUnavailable, err)
	}
	return &p, nil
}

// UpsertPage inserts the page if absent. When a row already exists it is
// replaced only if the incoming date parses strictly newer than the stored
// date, or the stored date is absent or unparseable. An empty incoming
// date never updates an existing row.
func (s *Store) UpsertPage(p model.WebPage) error {
	var stored string
	err := s.db.QueryRow(`SELECT date FROM web_page WHERE url = ?`, p.URL).Scan(&stored)
	switch {
	case err == sql.ErrNoRows:
		_, err := s.db.Exec(`
			INSERT INTO web_page (url, title, date, snippet, content, source, language, category, country)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.URL, p.Title, p.Date, p.Snippet, p.Content, p.Source, p.Language, p.Category, p.Country)
		if err != nil {
			return fmt.Errorf("%w: insert web_page: %v", ErrStorageUnavailable, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("%w: query web_page: %v", ErrStorageUnavailable, err)
	}

	if p.Date == "" {
		return nil
	}
	if !newerThan(p.Date, stored) {
		return nil
	}

	_, err = s.db.Exec(`
		UPDATE web_page
		SET title = ?, date = ?, snippet = ?, content = ?, source = ?, language = ?, category = ?, country = ?
		WHERE url = ?`,
		p.Title, p.Date, p.Snippet, p.Content, p.Source, p.Language, p.Category, p.Country, p.URL)
	if err != nil {
		return fmt.Errorf("%w: update web_page: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// newerThan reports whether candidate parses to a strictly later timestamp
// than stored. A missing or unparseable stored date always loses to a
// parseable candidate.
func newerThan(candidate, stored string) bool {
	cand, ok := parseDate(candidate)
	if !ok {
		return false
	}
	prev, ok := parseDate(stored)
	if !ok {
		return true
	}
	return cand.After(prev)
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// GetClaimsByURL returns the claim extraction stored for url. The second
// return value is false when no extraction exists.
func (s *Store) GetClaimsByURL(url string) ([]model.ClaimRecord, bool, error) {
	var payload string
	err := s.db.QueryRow(`SELECT claims_json FROM claim WHERE url = ?`, url).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: query claim: %v", ErrStorageUnavailable, err)
	}

	var records []model.ClaimRecord
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		return nil, false, fmt.Errorf("%w: claims for %s: %v", ErrCorruptRecord, url, err)
	}
	return records, true, nil
}

// UpsertClaims replaces the full claim extraction for url
func (s *Store) UpsertClaims(url string, records []model.ClaimRecord) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal claims: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO claim (url, claims_json) VALUES (?, ?)
		ON CONFLICT(url) DO UPDATE SET claims_json = excluded.claims_json`,
		url, string(payload))
	if err != nil {
		return fmt.Errorf("%w: upsert claim: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// UpsertClaimRecord inserts or replaces a curated claim record, keyed by
// its claim text. Last write wins; the text is trusted as identity.
func (s *Store) UpsertClaimRecord(rec model.ClaimRecord) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO claim_data (claim, topic, evidence, target, url, category)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Claim, rec.Topic, rec.Evidence, rec.Target, rec.URL, rec.Category)
	if err != nil {
		return fmt.Errorf("%w: upsert claim_data: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// GetClaimRecord returns the curated record with the given claim text,
// or nil when absent.
func (s *Store) GetClaimRecord(claim string) (*model.ClaimRecord, error) {
	row := s.db.QueryRow(`
		SELECT claim, topic, evidence, target, url, category
		FROM claim_data WHERE claim = ?`, claim)

	var rec model.ClaimRecord
	err := row.Scan(&rec.Claim, &rec.Topic, &rec.Evidence, &rec.Target, &rec.URL, &rec.Category)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query claim_data: %v", ErrStorageUnavailable, err)
	}
	return &rec, nil
}

// RandomClaims returns up to count uniformly sampled claim records,
// optionally filtered by category. Used for topic sampling.
func (s *Store) RandomClaims(count int, category string) ([]model.ClaimRecord, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if category != "" {
		rows, err = s.db.Query(`
			SELECT claim, topic, evidence, target, url, category
			FROM claim_data WHERE category = ? ORDER BY RANDOM() LIMIT ?`, category, count)
	} else {
		rows, err = s.db.Query(`
			SELECT claim, topic, evidence, target, url, category
			FROM claim_data ORDER BY RANDOM() LIMIT ?`, count)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query claim_data: %v", ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var records []model.ClaimRecord
	for rows.Next() {
		var rec model.ClaimRecord
		if err := rows.Scan(&rec.Claim, &rec.Topic, &rec.Evidence, &rec.Target, &rec.URL, &rec.Category); err != nil {
			return nil, fmt.Errorf("%w: scan claim_data: %v", ErrStorageUnavailable, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate claim_data: %v", ErrStorageUnavailable, err)
	}
	return records, nil
}

// ClaimCategories returns the distinct non-empty categories present in
// the curated claim records.
func (s *Store) ClaimCategories() ([]string, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT category FROM claim_data
		WHERE category != '' AND category IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("%w: query categories: %v", ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("%w: scan category: %v", ErrStorageUnavailable, err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CategoryForURL returns the category recorded for url in the page cache,
// or empty when the page is unknown or uncategorized. Used to backfill
// claim record categories during seeding.
func (s *Store) CategoryForURL(url string) (string, error) {
	var category sql.NullString
	err := s.db.QueryRow(`SELECT category FROM web_page WHERE url = ?`, url).Scan(&category)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: query web_page: %v", ErrStorageUnavailable, err)
	}
	return category.String, nil
}

// AppendAnnotatedQuestion appends a finished annotation to the log and
// assigns it the next auto-increment id.
func (s *Store) AppendAnnotatedQuestion(query, answer, annotator string, records []model.ClaimRecord) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO annotated_data (query, answer, annotator, records, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		query, answer, annotator, string(payload), time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("%w: insert annotated_data: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// RecentAnnotations returns up to limit annotated questions, newest
// first. Source claim records are deserialized from the stored payload;
// a payload that fails to deserialize surfaces as ErrCorruptRecord.
func (s *Store) RecentAnnotations(limit int) ([]model.AnnotatedQuestion, error) {
	rows, err := s.db.Query(`
		SELECT id, query, answer, annotator, records, timestamp
		FROM annotated_data ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query annotated_data: %v", ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var questions []model.AnnotatedQuestion
	for rows.Next() {
		var (
			q       model.AnnotatedQuestion
			payload string
			stamp   string
		)
		if err := rows.Scan(&q.ID, &q.Query, &q.Answer, &q.Annotator, &payload, &stamp); err != nil {
			return nil, fmt.Errorf("%w: scan annotated_data: %v", ErrStorageUnavailable, err)
		}
		if err := json.Unmarshal([]byte(payload), &q.Records); err != nil {
			return nil, fmt.Errorf("%w: annotation %d records: %v", ErrCorruptRecord, q.ID, err)
		}
		if t, err := time.Parse(time.RFC3339, stamp); err == nil {
			q.Timestamp = t
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// AnnotationStats returns per-annotator counts, descending by count
func (s *Store) AnnotationStats() ([]model.AnnotatorCount, error) {
	rows, err := s.db.Query(`
		SELECT annotator, COUNT(*) AS count
		FROM annotated_data
		GROUP BY annotator
		ORDER BY count DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: query annotated_data: %v", ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var stats []model.AnnotatorCount
	for rows.Next() {
		var ac model.AnnotatorCount
		if err := rows.Scan(&ac.Annotator, &ac.Count); err != nil {
			return nil, fmt.Errorf("%w: scan annotated_data: %v", ErrStorageUnavailable, err)
		}
		stats = append(stats, ac)
	}
	return stats, rows.Err()
}

// CachedSearch returns the serialized result set cached for (kind, query).
// The second return value is false on a cache miss. Entries never expire;
// a hit is served regardless of age.
func (s *Store) CachedSearch(kind model.SearchKind, query string) (json.RawMessage, bool, error) {
	table, err := searchTable(kind)
	if err != nil {
		return nil, false, err
	}

	var payload string
	err = s.db.QueryRow(`SELECT result FROM `+table+` WHERE query = ?`, query).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: query %s: %v", ErrStorageUnavailable, table, err)
	}

	if !json.Valid([]byte(payload)) {
		return nil, false, fmt.Errorf("%w: %s result for %q", ErrCorruptRecord, table, query)
	}
	return json.RawMessage(payload), true, nil
}

// UpsertSearchCache stores the serialized result set for (kind, query),
// replacing any previous entry.
func (s *Store) UpsertSearchCache(kind model.SearchKind, query string, results json.RawMessage) error {
	table, err := searchTable(kind)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO `+table+` (query, result, timestamp) VALUES (?, ?, ?)
		ON CONFLICT(query) DO UPDATE SET result = excluded.result, timestamp = excluded.timestamp`,
		query, string(results), time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %v", ErrStorageUnavailable, table, err)
	}
	return nil
}

// searchTable maps a search kind to its cache table. The table name is
// interpolated, so only validated kinds may pass.
func searchTable(kind model.SearchKind) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("unknown search kind: %s", kind)
	}
	if kind == model.SearchKindNews {
		return "news_search", nil
	}
	return "google_search", nil
}
