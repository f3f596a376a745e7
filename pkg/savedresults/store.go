// Package savedresults keeps a per-user list of search results with notes and tags.
package savedresults

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.mau.fi/util/dbutil"
	"go.mau.fi/util/jsontime"

	"github.com/beeper/medsearch/pkg/search"
)

var ErrNotFound = errors.New("saved result not found")

const schema = `
CREATE TABLE IF NOT EXISTS saved_results (
	user_id        TEXT    NOT NULL,
	result_id      TEXT    NOT NULL,
	provider       TEXT    NOT NULL,
	title          TEXT    NOT NULL,
	url            TEXT    NOT NULL DEFAULT '',
	snippet        TEXT    NOT NULL DEFAULT '',
	source         TEXT    NOT NULL DEFAULT '',
	evidence_level TEXT    NOT NULL DEFAULT '',
	content_type   TEXT    NOT NULL DEFAULT '',
	notes          TEXT    NOT NULL DEFAULT '',
	tags           TEXT    NOT NULL DEFAULT '[]',
	saved_at       INTEGER NOT NULL,
	updated_at     INTEGER NOT NULL,
	PRIMARY KEY (user_id, result_id, provider)
);
CREATE INDEX IF NOT EXISTS saved_results_user_updated_idx ON saved_results (user_id, updated_at);
`

const selectColumns = `result_id, provider, title, url, snippet, source, evidence_level, content_type, notes, tags, saved_at, updated_at`

// SavedResult is a search result bookmarked by one user.
type SavedResult struct {
	UserID        string               `json:"userId"`
	ResultID      string               `json:"resultId"`
	Provider      search.ProviderID    `json:"provider"`
	Title         string               `json:"title"`
	URL           string               `json:"url,omitempty"`
	Snippet       string               `json:"snippet,omitempty"`
	Source        string               `json:"source,omitempty"`
	EvidenceLevel search.EvidenceLevel `json:"evidenceLevel,omitempty"`
	ContentType   search.ContentType   `json:"contentType,omitempty"`
	Notes         string               `json:"notes,omitempty"`
	Tags          []string             `json:"tags"`
	SavedAt       jsontime.Unix        `json:"savedAt"`
	UpdatedAt     jsontime.Unix        `json:"updatedAt"`
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	Provider search.ProviderID
	Tag      string
	Text     string
	Limit    int
}

// Patch changes the user-editable fields of a saved result. Nil fields are left alone.
type Patch struct {
	Notes *string
	Tags  *[]string
}

type Store struct {
	db     *dbutil.Database
	userID string
	now    func() time.Time
}

func NewStore(db *dbutil.Database, userID string) *Store {
	return &Store{
		db:     db,
		userID: userID,
		now:    time.Now,
	}
}

// Upgrade creates the saved_results table if it does not exist.
func (s *Store) Upgrade(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schema)
	return err
}

// Save stores r for the user. Saving the same result again replaces its
// fields but keeps the original saved time.
func (s *Store) Save(ctx context.Context, r search.SearchResult, notes string, tags []string) (*SavedResult, error) {
	now := s.now()
	entry := &SavedResult{
		UserID:        s.userID,
		ResultID:      strings.TrimSpace(r.ID),
		Provider:      r.Provider,
		Title:         strings.TrimSpace(r.Title),
		URL:           strings.TrimSpace(r.URL),
		Snippet:       r.Snippet,
		Source:        r.Source,
		EvidenceLevel: r.EvidenceLevel,
		ContentType:   r.ContentType,
		Notes:         strings.TrimSpace(notes),
		Tags:          normalizeTags(tags),
		SavedAt:       jsontime.U(now),
		UpdatedAt:     jsontime.U(now),
	}
	if err := entry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid saved result: %w", err)
	}
	tagsJSON, err := json.Marshal(entry.Tags)
	if err != nil {
		return nil, err
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO saved_results
           (user_id, result_id, provider, title, url, snippet, source, evidence_level, content_type, notes, tags, saved_at, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
         ON CONFLICT (user_id, result_id, provider)
         DO UPDATE SET title=excluded.title, url=excluded.url, snippet=excluded.snippet, source=excluded.source,
           evidence_level=excluded.evidence_level, content_type=excluded.content_type,
           notes=excluded.notes, tags=excluded.tags, updated_at=excluded.updated_at`,
		s.userID, entry.ResultID, string(entry.Provider), entry.Title, entry.URL, entry.Snippet, entry.Source,
		string(entry.EvidenceLevel), string(entry.ContentType), entry.Notes, string(tagsJSON),
		now.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return nil, err
	}
	stored, found, err := s.Get(ctx, entry.ResultID, entry.Provider)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return stored, nil
}

func (s *Store) Get(ctx context.Context, resultID string, provider search.ProviderID) (*SavedResult, bool, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+selectColumns+`
         FROM saved_results
         WHERE user_id=$1 AND result_id=$2 AND provider=$3`,
		s.userID, resultID, string(provider),
	)
	entry, err := s.scan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return entry, true, nil
}

// List returns the user's saved results, most recently updated first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]SavedResult, error) {
	var query strings.Builder
	query.WriteString(`SELECT ` + selectColumns + ` FROM saved_results WHERE user_id=$1`)
	args := []any{s.userID}
	if filter.Provider != "" {
		args = append(args, string(filter.Provider))
		fmt.Fprintf(&query, " AND provider=$%d", len(args))
	}
	if text := strings.ToLower(strings.TrimSpace(filter.Text)); text != "" {
		args = append(args, "%"+escapeLike(text)+"%")
		n := len(args)
		fmt.Fprintf(&query, ` AND (LOWER(title) LIKE $%d ESCAPE '\' OR LOWER(snippet) LIKE $%d ESCAPE '\' OR LOWER(notes) LIKE $%d ESCAPE '\')`, n, n, n)
	}
	query.WriteString(" ORDER BY updated_at DESC, result_id ASC")

	rows, err := s.db.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tag := normalizeTag(filter.Tag)
	var entries []SavedResult
	for rows.Next() {
		entry, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		if tag != "" && !slices.Contains(entry.Tags, tag) {
			continue
		}
		entries = append(entries, *entry)
		if filter.Limit > 0 && len(entries) >= filter.Limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Update applies patch to a saved result and returns the new state.
func (s *Store) Update(ctx context.Context, resultID string, provider search.ProviderID, patch Patch) (*SavedResult, error) {
	entry, found, err := s.Get(ctx, resultID, provider)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	if patch.Notes != nil {
		entry.Notes = strings.TrimSpace(*patch.Notes)
	}
	if patch.Tags != nil {
		entry.Tags = normalizeTags(*patch.Tags)
	}
	if err := entry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid saved result: %w", err)
	}
	tagsJSON, err := json.Marshal(entry.Tags)
	if err != nil {
		return nil, err
	}
	now := s.now()
	_, err = s.db.Exec(ctx,
		`UPDATE saved_results SET notes=$1, tags=$2, updated_at=$3
         WHERE user_id=$4 AND result_id=$5 AND provider=$6`,
		entry.Notes, string(tagsJSON), now.UnixMilli(), s.userID, resultID, string(provider),
	)
	if err != nil {
		return nil, err
	}
	entry.UpdatedAt = jsontime.U(now)
	return entry, nil
}

// Remove deletes a saved result. It reports whether a row was removed.
func (s *Store) Remove(ctx context.Context, resultID string, provider search.ProviderID) (bool, error) {
	result, err := s.db.Exec(ctx,
		`DELETE FROM saved_results WHERE user_id=$1 AND result_id=$2 AND provider=$3`,
		s.userID, resultID, string(provider),
	)
	if err != nil {
		return false, err
	}
	return affectedAny(result)
}

func affectedAny(result sql.Result) (bool, error) {
	if result == nil {
		return false, nil
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("count removed rows: %w", err)
	}
	return rows > 0, nil
}

func (s *Store) scan(row dbutil.Scannable) (*SavedResult, error) {
	var (
		entry             SavedResult
		provider          string
		evidence, content string
		tagsJSON          string
		savedAt, updated  int64
	)
	err := row.Scan(&entry.ResultID, &provider, &entry.Title, &entry.URL, &entry.Snippet, &entry.Source,
		&evidence, &content, &entry.Notes, &tagsJSON, &savedAt, &updated)
	if err != nil {
		return nil, err
	}
	entry.UserID = s.userID
	entry.Provider = search.ProviderID(provider)
	entry.EvidenceLevel = search.EvidenceLevel(evidence)
	entry.ContentType = search.ContentType(content)
	if err := json.Unmarshal([]byte(tagsJSON), &entry.Tags); err != nil {
		return nil, fmt.Errorf("decode tags of %s: %w", entry.ResultID, err)
	}
	if entry.Tags == nil {
		entry.Tags = []string{}
	}
	entry.SavedAt = jsontime.U(time.UnixMilli(savedAt))
	entry.UpdatedAt = jsontime.U(time.UnixMilli(updated))
	return &entry, nil
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.Join(strings.Fields(tag), "-"))
}

// normalizeTags lowercases, dedupes and sorts tags.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = normalizeTag(tag); tag != "" && !slices.Contains(out, tag) {
			out = append(out, tag)
		}
	}
	slices.Sort(out)
	return out
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}
