// Package rulestore implements the Rule Store: Postgres-backed CRUD of
// engine.Rule plus the in-process cache the engine reads on the hot
// path.
package rulestore

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/sentineldev/modgate/internal/engine"
)

// Store provides Postgres-backed access to moderation rules.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store backed by the given connection pool.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateRuleParams holds the fields required to create a rule.
type CreateRuleParams struct {
	Name        string
	Description string
	Kind        engine.RuleKind
	Region      engine.Region
	Patterns    []string
	Threshold   float64
	Priority    int
	IsActive    bool
}

// UpdateRuleParams holds optional fields for a partial rule update.
// Nil fields are left unchanged.
type UpdateRuleParams struct {
	Name        *string
	Description *string
	Patterns    *[]string
	Threshold   *float64
	Priority    *int
	IsActive    *bool
}

// CreateRule inserts a new rule. REGEX-kind patterns are validated at
// write time — an invalid pattern is rejected here rather than being
// silently skipped later on the request path.
func (s *Store) CreateRule(ctx context.Context, p CreateRuleParams) (*engine.Rule, error) {
	if p.Kind == engine.KindRegex {
		if err := validatePatterns(p.Patterns); err != nil {
			return nil, fmt.Errorf("CreateRule: %w", err)
		}
	}

	var row ruleRow
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO moderation_rules (name, description, kind, region, patterns, threshold, priority, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, name, description, kind, region, patterns, threshold, priority, is_active, created_at, updated_at`,
		p.Name, p.Description, p.Kind.String(), p.Region.String(), pq(p.Patterns), p.Threshold, p.Priority, p.IsActive,
	).Scan(&row.id, &row.name, &row.description, &row.kind, &row.region, &row.patterns,
		&row.threshold, &row.priority, &row.isActive, &row.createdAt, &row.updatedAt)
	if err != nil {
		return nil, fmt.Errorf("CreateRule: %w", err)
	}
	return row.toRule()
}

// GetRule returns a rule by id, or nil if it doesn't exist.
func (s *Store) GetRule(ctx context.Context, id string) (*engine.Rule, error) {
	var row ruleRow
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, kind, region, patterns, threshold, priority, is_active, created_at, updated_at
		FROM moderation_rules WHERE id = $1`, id,
	).Scan(&row.id, &row.name, &row.description, &row.kind, &row.region, &row.patterns,
		&row.threshold, &row.priority, &row.isActive, &row.createdAt, &row.updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetRule: %w", err)
	}
	return row.toRule()
}

// UpdateRule applies a partial update to a rule and bumps updated_at.
// A rule's kind and region are immutable after creation — a mismatched
// detector routing is a data-modeling error the store refuses to allow.
func (s *Store) UpdateRule(ctx context.Context, id string, p UpdateRuleParams) (*engine.Rule, error) {
	var row ruleRow
	err := s.db.QueryRowContext(ctx, `
		UPDATE moderation_rules SET
			name        = COALESCE($2, name),
			description = COALESCE($3, description),
			patterns    = COALESCE($4, patterns),
			threshold   = COALESCE($5, threshold),
			priority    = COALESCE($6, priority),
			is_active   = COALESCE($7, is_active),
			updated_at  = now()
		WHERE id = $1
		RETURNING id, name, description, kind, region, patterns, threshold, priority, is_active, created_at, updated_at`,
		id, p.Name, p.Description, pqOptional(p.Patterns), p.Threshold, p.Priority, p.IsActive,
	).Scan(&row.id, &row.name, &row.description, &row.kind, &row.region, &row.patterns,
		&row.threshold, &row.priority, &row.isActive, &row.createdAt, &row.updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("UpdateRule: %w", err)
	}
	return row.toRule()
}

// DeleteRule soft-deletes a rule by setting is_active = false, matching
// the moderation contract's "inactive rules are invisible to the engine" — rows are
// never hard-deleted so audit history stays resolvable to a rule name.
func (s *Store) DeleteRule(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE moderation_rules SET is_active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeleteRule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteRule: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListActiveRules loads every active rule, ordered priority descending
// then id ascending. This is the single query the cache's
// refresh loop issues; the request path never calls it directly.
func (s *Store) ListActiveRules(ctx context.Context) ([]engine.Rule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, kind, region, patterns, threshold, priority, is_active, created_at, updated_at
		FROM moderation_rules
		WHERE is_active = true
		ORDER BY priority DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("ListActiveRules: %w", err)
	}
	defer rows.Close()

	var out []engine.Rule
	for rows.Next() {
		var row ruleRow
		if err := rows.Scan(&row.id, &row.name, &row.description, &row.kind, &row.region, &row.patterns,
			&row.threshold, &row.priority, &row.isActive, &row.createdAt, &row.updatedAt); err != nil {
			return nil, fmt.Errorf("ListActiveRules: %w", err)
		}
		rule, err := row.toRule()
		if err != nil {
			// A rule that fails to parse (unknown kind/region, e.g. from a
			// partial migration) is dropped from the snapshot rather than
			// aborting the whole refresh — one bad row must not take every
			// other rule offline.
			continue
		}
		out = append(out, *rule)
	}
	return out, rows.Err()
}

// ruleRow mirrors the moderation_rules table's column layout.
type ruleRow struct {
	id          string
	name        string
	description string
	kind        string
	region      string
	patterns    stringArray
	threshold   float64
	priority    int
	isActive    bool
	createdAt   time.Time
	updatedAt   time.Time
}

func (r ruleRow) toRule() (*engine.Rule, error) {
	kind, ok := engine.ParseRuleKind(r.kind)
	if !ok {
		return nil, fmt.Errorf("rule %s: unknown kind %q", r.id, r.kind)
	}
	region, ok := engine.ParseRegion(r.region)
	if !ok {
		return nil, fmt.Errorf("rule %s: unknown region %q", r.id, r.region)
	}

	rule := &engine.Rule{
		ID:          r.id,
		Name:        r.name,
		Description: r.description,
		Kind:        kind,
		Region:      region,
		Patterns:    []string(r.patterns),
		Threshold:   r.threshold,
		Priority:    r.priority,
		IsActive:    r.isActive,
	}

	if kind == engine.KindRegex {
		rule.CompiledPatterns = compilePatterns(rule.Patterns)
	}

	return rule, nil
}

// compilePatterns compiles each REGEX rule pattern once, at load time.
// A pattern that fails to compile is kept in the slice marked Invalid,
// rather than dropped silently: the Regex detector then reports a
// regex_compile error for the rule, and the engine skips the rule and
// counts the detector error.
func compilePatterns(patterns []string) []*engine.CompiledPattern {
	out := make([]*engine.CompiledPattern, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			out = append(out, &engine.CompiledPattern{Source: p, Invalid: true})
			continue
		}
		out = append(out, &engine.CompiledPattern{Source: p, Regexp: re})
	}
	return out
}

func validatePatterns(patterns []string) error {
	for _, p := range patterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("invalid regex pattern %q: %w", p, err)
		}
	}
	return nil
}
