package talent

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anatolykoptev/go_talent/internal/engine"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// PGStore is the PostgreSQL candidate store.
type PGStore struct {
	pool *pgxpool.Pool
}

// ConnectPGStore creates a pgx pool and runs schema migrations.
func ConnectPGStore(ctx context.Context, databaseURL string) (*PGStore, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PGStore{pool: pool}
	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("candidate store connected", slog.String("addr", config.ConnConfig.Host))
	return s, nil
}

func (s *PGStore) Close() {
	s.pool.Close()
}

func (s *PGStore) runMigrations(ctx context.Context) error {
	entries, err := schemaFS.ReadDir("schema")
	if err != nil {
		return fmt.Errorf("read schema dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := schemaFS.ReadFile("schema/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if _, err := s.pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("execute %s: %w", entry.Name(), err)
		}
		slog.Info("migration applied", slog.String("file", entry.Name()))
	}
	return nil
}

const candidateColumns = `id, name, handle, email, location, current_title, current_company,
	experience_years, skills, bio, technical_depth_score, community_influence_score,
	learning_velocity_score, match_score, availability_status, availability_signals,
	osint_profile, source_details, profile_last_updated, osint_last_fetched`

// searchSQL applies the three optional filters: skills overlap, minimum
// years and case-insensitive location substring.
const searchSQL = `SELECT ` + candidateColumns + `, count(*) OVER () AS total
	FROM candidates
	WHERE (cardinality($1::text[]) = 0 OR skills && $1::text[])
	  AND ($2::int IS NULL OR experience_years >= $2::int)
	  AND ($3::text = '' OR location ILIKE '%' || $3::text || '%')
	ORDER BY match_score DESC, id
	LIMIT $4`

// Search implements CandidateStore.
func (s *PGStore) Search(ctx context.Context, q StoreQuery) (StoreResult, error) {
	var res StoreResult
	err := engine.TrackOperation(ctx, "store_search", func(ctx context.Context) error {
		var err error
		res, err = s.search(ctx, q)
		return err
	})
	return res, err
}

func (s *PGStore) search(ctx context.Context, q StoreQuery) (StoreResult, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	skills := q.Filters.Skills
	if skills == nil {
		skills = []string{}
	}

	rows, err := s.pool.Query(ctx, searchSQL, skills, q.Filters.MinExperienceYears, q.Filters.Location, limit)
	if err != nil {
		return StoreResult{}, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var res StoreResult
	for rows.Next() {
		c, total, err := scanCandidate(rows)
		if err != nil {
			return StoreResult{}, err
		}
		res.TotalFound = total
		res.Candidates = append(res.Candidates, c)
	}
	if err := rows.Err(); err != nil {
		return StoreResult{}, fmt.Errorf("iterate candidates: %w", err)
	}
	return res, nil
}

func scanCandidate(rows pgx.Rows) (Candidate, int, error) {
	var (
		c                  Candidate
		status             string
		osintJSON, srcJSON []byte
		fetched            *time.Time
		total              int
	)
	err := rows.Scan(&c.ID, &c.Name, &c.Handle, &c.Email, &c.Location, &c.CurrentTitle, &c.CurrentCompany,
		&c.ExperienceYears, &c.Skills, &c.Bio, &c.TechnicalDepthScore, &c.CommunityInfluenceScore,
		&c.LearningVelocityScore, &c.MatchScore, &status, &c.AvailabilitySignals,
		&osintJSON, &srcJSON, &c.ProfileLastUpdated, &fetched, &total)
	if err != nil {
		return Candidate{}, 0, fmt.Errorf("scan candidate: %w", err)
	}
	c.AvailabilityStatus = AvailabilityStatus(status)
	if fetched != nil {
		c.OSINTLastFetched = *fetched
	}
	if err := decodeCandidateJSON(&c, osintJSON, srcJSON); err != nil {
		return Candidate{}, 0, err
	}
	return c, total, nil
}

// decodeCandidateJSON fills the JSONB columns of c. NULL columns leave the
// zero value; a row without source details is an internal candidate.
func decodeCandidateJSON(c *Candidate, osintJSON, srcJSON []byte) error {
	if len(osintJSON) > 0 {
		if err := json.Unmarshal(osintJSON, &c.OSINTProfile); err != nil {
			return fmt.Errorf("candidate %s: decode osint_profile: %w", c.ID, err)
		}
	}
	if len(srcJSON) > 0 {
		if err := json.Unmarshal(srcJSON, &c.SourceDetails); err != nil {
			return fmt.Errorf("candidate %s: decode source_details: %w", c.ID, err)
		}
	}
	if c.SourceDetails.Type == "" {
		c.SourceDetails.Type = SourceInternal
		c.SourceDetails.Platform = PlatformInternal
	}
	return nil
}

const upsertSQL = `INSERT INTO candidates (` + candidateColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		location = EXCLUDED.location,
		current_title = EXCLUDED.current_title,
		current_company = EXCLUDED.current_company,
		experience_years = EXCLUDED.experience_years,
		skills = EXCLUDED.skills,
		technical_depth_score = GREATEST(candidates.technical_depth_score, EXCLUDED.technical_depth_score),
		community_influence_score = GREATEST(candidates.community_influence_score, EXCLUDED.community_influence_score),
		match_score = EXCLUDED.match_score,
		availability_status = EXCLUDED.availability_status,
		availability_signals = EXCLUDED.availability_signals,
		osint_profile = EXCLUDED.osint_profile,
		source_details = EXCLUDED.source_details,
		profile_last_updated = EXCLUDED.profile_last_updated,
		osint_last_fetched = EXCLUDED.osint_last_fetched`

// Upsert implements CandidateWriter in a single batch.
func (s *PGStore) Upsert(ctx context.Context, cands []Candidate) error {
	if len(cands) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, c := range cands {
		osintJSON, _ := json.Marshal(c.OSINTProfile)
		srcJSON, _ := json.Marshal(c.SourceDetails)
		var fetched *time.Time
		if !c.OSINTLastFetched.IsZero() {
			fetched = &c.OSINTLastFetched
		}
		updated := c.ProfileLastUpdated
		if updated.IsZero() {
			updated = time.Now().UTC()
		}
		skills, signals := c.Skills, c.AvailabilitySignals
		if skills == nil {
			skills = []string{}
		}
		if signals == nil {
			signals = []string{}
		}
		status := string(c.AvailabilityStatus)
		if status == "" {
			status = string(AvailabilityPassive)
		}
		batch.Queue(upsertSQL, c.ID, c.Name, c.Handle, c.Email, c.Location, c.CurrentTitle, c.CurrentCompany,
			c.ExperienceYears, skills, c.Bio, c.TechnicalDepthScore, c.CommunityInfluenceScore,
			c.LearningVelocityScore, c.MatchScore, status, signals,
			osintJSON, srcJSON, updated, fetched)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert candidates: %w", err)
	}
	return nil
}
