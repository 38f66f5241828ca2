package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	domain "github.com/medu1122/CAPTONE1-sub002/internal/domain/analysis"
	"github.com/medu1122/CAPTONE1-sub002/internal/domain/treatment"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Save appends one composed analysis. Diseases, treatments and advisories
// are stored as JSON documents; the caller never updates a saved row.
func (r *AnalysisRepository) Save(ctx context.Context, res *domain.Result) error {
	const q = `
INSERT INTO plant_analyses
(id, user_id, image_url, input_text,
 plant_common, plant_scientific, plant_confidence, plant_reliable, is_healthy,
 diseases_json, treatments_json, advisory_json, care,
 latitude, longitude, analyzed_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 treatments_json=VALUES(treatments_json),
 advisory_json=VALUES(advisory_json),
 care=VALUES(care);
`
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
WHERE id=? LIMIT 1;
`
	return scanResult(r.db.QueryRowContext(ctx, q, id))
}

// Latest analyses, optionally scoped to one user
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
		rows, err = r.db.QueryContext(ctx, base+"ORDER BY analyzed_at DESC LIMIT ?;", limit)
	} else {
		rows, err = r.db.QueryContext(ctx, base+"WHERE user_id=? ORDER BY analyzed_at DESC LIMIT ?;", userID, limit)
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
