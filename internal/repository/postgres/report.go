package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"prisma/internal/domain/report"
	"prisma/pkg/errors"
)

// Compile-time check that we implement the interface
var _ report.Repository = (*ReportRepository)(nil)

// ReportRepository implements report.Repository using sqlx
type ReportRepository struct {
	db DBTX
}

// NewReportRepository creates a new analysis report repository
func NewReportRepository(db DBTX) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a new report. Reports are append-only.
func (r *ReportRepository) Create(ctx context.Context, rep *report.MarketAnalysisReport) error {
	structuredJSON, err := json.Marshal(rep.StructuredData)
	if err != nil {
		return errors.Wrap(err, "failed to marshal structured data")
	}

	query := `
		INSERT INTO market_analysis_reports (
			id, user_id, city_id, start_date, end_date,
			report_markdown, structured_data, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)`

	_, err = r.db.ExecContext(ctx, query,
		rep.ID, rep.UserID, rep.CityID, rep.StartDate, rep.EndDate,
		rep.ReportMarkdown, structuredJSON, rep.CreatedAt,
	)

	return err
}

// GetByID retrieves a report by ID
func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*report.MarketAnalysisReport, error) {
	query := `
		SELECT id, user_id, city_id, start_date, end_date,
			   report_markdown, structured_data, created_at
		FROM market_analysis_reports
		WHERE id = $1`

	return r.scanOne(ctx, query, id)
}

// LatestByCity retrieves the most recent report for a city
func (r *ReportRepository) LatestByCity(ctx context.Context, cityID uuid.UUID) (*report.MarketAnalysisReport, error) {
	query := `
		SELECT id, user_id, city_id, start_date, end_date,
			   report_markdown, structured_data, created_at
		FROM market_analysis_reports
		WHERE city_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	return r.scanOne(ctx, query, cityID)
}

// ListByUser retrieves the most recent reports created by a user
func (r *ReportRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*report.MarketAnalysisReport, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, user_id, city_id, start_date, end_date,
			   report_markdown, structured_data, created_at
		FROM market_analysis_reports
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var reports []*report.MarketAnalysisReport
	for rows.Next() {
		rep, err := scanReport(rows.Scan)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}

	return reports, rows.Err()
}

func (r *ReportRepository) scanOne(ctx context.Context, query string, arg interface{}) (*report.MarketAnalysisReport, error) {
	row := r.db.QueryRowContext(ctx, query, arg)

	rep, err := scanReport(row.Scan)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(errors.ErrNotFound, "report not found")
	}
	if err != nil {
		return nil, err
	}

	return rep, nil
}

func scanReport(scan func(dest ...interface{}) error) (*report.MarketAnalysisReport, error) {
	var rep report.MarketAnalysisReport
	var structuredJSON []byte

	err := scan(
		&rep.ID, &rep.UserID, &rep.CityID, &rep.StartDate, &rep.EndDate,
		&rep.ReportMarkdown, &structuredJSON, &rep.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(structuredJSON) > 0 {
		if err := json.Unmarshal(structuredJSON, &rep.StructuredData); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal structured data")
		}
	}

	return &rep, nil
}
