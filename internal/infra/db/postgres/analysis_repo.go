package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/lib/pq"

	domain "github.com/medu1122/CAPTONE1-sub002/internal/domain/analysis"
	"github.com/medu1122/CAPTONE1-sub002/internal/domain/treatment"
)

type AnalysisRepository struct{ db *sql.DB }

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository { return &AnalysisRepository{db: db} }

// Connect opens a Postgres pool for deployments running on Postgres instead
// of MySQL.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		return nil, err
	}
	return db, nil
}

// Save insert analysis record
func (r *AnalysisRepository) Save(ctx context.Context, res *domain.Result) error {
	const q = `
INSERT INTO plant_analyses
(id, user_id, image_url, input_text,
 plant_common, plant_scientific, plant_confidence, plant_reliable, is_healthy,
 diseases_json, treatments_json, advisory_json, care,
 latitude, longitude, analyzed_at)
VALUES ($1,$2,$3,$4,
        $5,$6,$7,$8,$9,
        $10,$11,$12,$13,
        $14,$15,$16)
ON CONFLICT (id) DO UPDATE SET
 treatments_json = EXCLUDED.treatments_json,
 advisory_json = EXCLUDED.advisory_json,
 care = EXCLUDED.care;`

	var common, scientific sql.NullString
	var confidence sql.NullFloat64
	var reliable sql.NullBool
	if res.Plant != nil {
		common = nullIfEmpty(res.Plant.CommonName)
		scientific = nullIfEmpty(res.Plant.ScientificName)
		confidence = sql.NullFloat64{Float64: res.Plant.Confidence, Valid: true}
		reliable = sql.NullBool{Bool: res.Plant.Reliable, Valid: true}
	}
	analyzed := res.AnalyzedAt
	if analyzed.IsZero() {
		analyzed = time.Now()
	}

	_, err := r.db.ExecContext(ctx, q,
		res.ID, nullIfEmpty(res.UserID), nullIfEmpty(res.ImageURL), nullIfEmpty(res.InputText),
		common, scientific, confidence, reliable, res.IsHealthy,
		mustJSON(res.Diseases), mustJSON(res.TreatmentsByDisease), mustJSON(res.AdvisoryByDisease), nullIfEmpty(res.Care),
		nullFloat(res.Latitude), nullFloat(res.Longitude), analyzed,
	)
	return err
}

// Get by ID
func (r *AnalysisRepository) Get(ctx context.Context, id domain.AnalysisID) (*domain.Result, error) {
	const q = `
SELECT id, user_id, image_url, input_text,
       plant_common, plant_scientific, plant_confidence, plant_reliable, is_healthy,
       diseases_json, treatments_json, advisory_json, care,
       latitude, longitude, analyzed_at
FROM plant_analyses
WHERE id=$1 LIMIT 1;`
	return scanResult(r.db.QueryRowContext(ctx, q, id))
}

// Latest analyses, optionally per user
func (r *AnalysisRepository) Latest(ctx context.Context, userID string, limit int) ([]*domain.Result, error) {
	if limit <= 0 {
		limit = 20
	}
	const base = `
SELECT id, user_id, image_url, input_text,
       plant_common, plant_scientific, plant_confidence, plant_reliable, is_healthy,
       diseases_json, treatments_json, advisory_json, care,
       latitude, longitude, analyzed_at
FROM plant_analyses
`
	var rows *sql.Rows
	var err error
	if userID == "" {
		rows, err = r.db.QueryContext(ctx, base+"ORDER BY analyzed_at DESC LIMIT $1;", limit)
	} else {
		rows, err = r.db.QueryContext(ctx, base+"WHERE user_id=$1 ORDER BY analyzed_at DESC LIMIT $2;", userID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (*domain.Result, error) {
	var res domain.Result
	var userID, imageURL, inputText, common, scientific, care sql.NullString
	var confidence, lat, lon sql.NullFloat64
	var reliable sql.NullBool
	var diseasesJSON, treatmentsJSON, advisoryJSON string

	if err := row.Scan(
		&res.ID, &userID, &imageURL, &inputText,
		&common, &scientific, &confidence, &reliable, &res.IsHealthy,
		&diseasesJSON, &treatmentsJSON, &advisoryJSON, &care,
		&lat, &lon, &res.AnalyzedAt,
	); err != nil {
		return nil, err
	}

	res.UserID = userID.String
	res.ImageURL = imageURL.String
	res.InputText = inputText.String
	res.Care = care.String
	res.Latitude = floatPtr(lat)
	res.Longitude = floatPtr(lon)
	if common.Valid || scientific.Valid {
		res.Plant = &domain.Plant{
			CommonName:     common.String,
			ScientificName: scientific.String,
			Confidence:     confidence.Float64,
			Reliable:       reliable.Bool,
		}
	}
	_ = json.Unmarshal([]byte(diseasesJSON), &res.Diseases)
	res.TreatmentsByDisease = map[string][]treatment.Group{}
	_ = json.Unmarshal([]byte(treatmentsJSON), &res.TreatmentsByDisease)
	res.AdvisoryByDisease = map[string]*string{}
	_ = json.Unmarshal([]byte(advisoryJSON), &res.AdvisoryByDisease)
	return &res, nil
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
