package rest

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwise1/civic_circle/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReportRepository is the persistence behind the embedded Report Store API.
type ReportRepository interface {
	ListReports(ctx context.Context) ([]model.Report, error)
	ListReportsPage(ctx context.Context, p PageRequest) ([]model.Report, int64, error)
	GetReport(ctx context.Context, id int64) (model.Report, error)
	CreateReport(ctx context.Context, req model.CreateReportRequest) (model.Report, error)
	UpdateReportStatus(ctx context.Context, id int64, status model.Status) (model.Report, error)
	DeleteReport(ctx context.Context, id int64) error
	SearchReports(ctx context.Context, keyword string) ([]model.Report, error)
	ReportsByStatus(ctx context.Context, status model.Status) ([]model.Report, error)
	ReportsByCategory(ctx context.Context, category string) ([]model.Report, error)
	ReportCategories(ctx context.Context) ([]string, error)
	ReportsSince(ctx context.Context, since time.Time) ([]model.Report, error)
	CountReportsByStatus(ctx context.Context, status model.Status) (int64, error)
}

// PageRequest is a validated page query. Page is zero based.
type PageRequest struct {
	Page    int
	Size    int
	SortBy  string
	SortDir string
}

var sortColumns = map[string]string{
	"id":        "id",
	"title":     "title",
	"category":  "category",
	"priority":  "priority",
	"status":    "status",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

func (p PageRequest) orderBy() string {
	column, ok := sortColumns[p.SortBy]
	if !ok {
		column = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(p.SortDir, "asc") {
		dir = "ASC"
	}
	return column + " " + dir + ", id " + dir
}

type ReportRepo struct {
	DB *pgxpool.Pool
}

const reportColumns = `id, title, description, category, priority, status, address,
    latitude, longitude, created_by, email, image, created_at, updated_at`

func scanReport(row pgx.Row) (model.Report, error) {
	var r model.Report
	err := row.Scan(
		&r.ID, &r.Title, &r.Description, &r.Category, &r.Priority, &r.Status, &r.Address,
		&r.Latitude, &r.Longitude, &r.CreatedBy, &r.Email, &r.Image, &r.CreatedAt, &r.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Report{}, model.ErrReportNotFound
	}
	return r, err
}

func (repo *ReportRepo) queryReports(ctx context.Context, stmt string, args ...interface{}) ([]model.Report, error) {
	rows, err := repo.DB.Query(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := []model.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func (repo *ReportRepo) ListReports(ctx context.Context) ([]model.Report, error) {
	return repo.queryReports(ctx, `SELECT `+reportColumns+` FROM reports ORDER BY created_at DESC, id DESC`)
}

func (repo *ReportRepo) ListReportsPage(ctx context.Context, p PageRequest) ([]model.Report, int64, error) {
	var total int64
	if err := repo.DB.QueryRow(ctx, `SELECT COUNT(*) FROM reports`).Scan(&total); err != nil {
		return nil, 0, err
	}

	stmt := `SELECT ` + reportColumns + ` FROM reports ORDER BY ` + p.orderBy() + ` LIMIT $1 OFFSET $2`
	reports, err := repo.queryReports(ctx, stmt, p.Size, p.Page*p.Size)
	if err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (repo *ReportRepo) GetReport(ctx context.Context, id int64) (model.Report, error) {
	return scanReport(repo.DB.QueryRow(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id))
}

func (repo *ReportRepo) CreateReport(ctx context.Context, req model.CreateReportRequest) (model.Report, error) {
	stmt := `
        INSERT INTO reports (
            title, description, category, priority, status, address,
            latitude, longitude, created_by, email, image
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING ` + reportColumns

	return scanReport(repo.DB.QueryRow(ctx, stmt,
		req.Title, req.Description, req.Category, req.Priority, model.StatusPending, req.Address,
		req.Latitude, req.Longitude, req.CreatedBy, req.Email, req.Image,
	))
}

func (repo *ReportRepo) UpdateReportStatus(ctx context.Context, id int64, status model.Status) (model.Report, error) {
	stmt := `
        UPDATE reports
        SET status = $2, updated_at = NOW()
        WHERE id = $1
        RETURNING ` + reportColumns
	return scanReport(repo.DB.QueryRow(ctx, stmt, id, status))
}

func (repo *ReportRepo) DeleteReport(ctx context.Context, id int64) error {
	tag, err := repo.DB.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrReportNotFound
	}
	return nil
}

func (repo *ReportRepo) SearchReports(ctx context.Context, keyword string) ([]model.Report, error) {
	stmt := `SELECT ` + reportColumns + ` FROM reports
        WHERE title ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%'
        ORDER BY created_at DESC, id DESC`
	return repo.queryReports(ctx, stmt, escapeLike(keyword))
}

func (repo *ReportRepo) ReportsByStatus(ctx context.Context, status model.Status) ([]model.Report, error) {
	return repo.queryReports(ctx, `SELECT `+reportColumns+` FROM reports WHERE status = $1 ORDER BY created_at DESC, id DESC`, status)
}

func (repo *ReportRepo) ReportsByCategory(ctx context.Context, category string) ([]model.Report, error) {
	return repo.queryReports(ctx, `SELECT `+reportColumns+` FROM reports WHERE category = $1 ORDER BY created_at DESC, id DESC`, category)
}

func (repo *ReportRepo) ReportCategories(ctx context.Context) ([]string, error) {
	rows, err := repo.DB.Query(ctx, `SELECT DISTINCT category FROM reports ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (repo *ReportRepo) ReportsSince(ctx context.Context, since time.Time) ([]model.Report, error) {
	return repo.queryReports(ctx, `SELECT `+reportColumns+` FROM reports WHERE created_at >= $1 ORDER BY created_at DESC, id DESC`, since)
}

func (repo *ReportRepo) CountReportsByStatus(ctx context.Context, status model.Status) (int64, error) {
	var n int64
	err := repo.DB.QueryRow(ctx, `SELECT COUNT(*) FROM reports WHERE status = $1`, status).Scan(&n)
	return n, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
