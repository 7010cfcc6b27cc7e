package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vidyalaya/exam-api/internal/models"
)

// ReportCardRepository persists aggregated report-card rows.
type ReportCardRepository struct {
	db Querier
}

// NewReportCardRepository creates a new repository instance.
func NewReportCardRepository(db *sqlx.DB) *ReportCardRepository {
	return &ReportCardRepository{db: db}
}

// WithTx rebinds the repository onto an open transaction.
func (r *ReportCardRepository) WithTx(tx *sqlx.Tx) *ReportCardRepository {
	return &ReportCardRepository{db: tx}
}

const reportCardColumns = `id, exam_id, student_id, enrollment_id, class_id, section_id, total_obtained, total_full_marks, percentage, gpa, overall_grade, rank, published, generated_at`

// Upsert writes one report card keyed by (exam_id, student_id).
// Regeneration overwrites totals, grade and timestamp but deliberately
// leaves rank and published untouched; ranking is a separate pass.
func (r *ReportCardRepository) Upsert(ctx context.Context, card *models.ReportCard) error {
	if card.ID == "" {
		card.ID = uuid.NewString()
	}
	if card.GeneratedAt.IsZero() {
		card.GeneratedAt = time.Now().UTC()
	}
	const query = `INSERT INTO report_cards (id, exam_id, student_id, enrollment_id, class_id, section_id, total_obtained, total_full_marks, percentage, gpa, overall_grade, rank, published, generated_at)
        VALUES (:id, :exam_id, :student_id, :enrollment_id, :class_id, :section_id, :total_obtained, :total_full_marks, :percentage, :gpa, :overall_grade, :rank, :published, :generated_at)
        ON CONFLICT (exam_id, student_id)
        DO UPDATE SET enrollment_id = EXCLUDED.enrollment_id, total_obtained = EXCLUDED.total_obtained,
            total_full_marks = EXCLUDED.total_full_marks, percentage = EXCLUDED.percentage, gpa = EXCLUDED.gpa,
            overall_grade = EXCLUDED.overall_grade, generated_at = EXCLUDED.generated_at`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, card); err != nil {
		return fmt.Errorf("upsert report card: %w", err)
	}
	return nil
}

// ListByScope returns every report card for one exam+class+section, ordered
// for ranking: percentage descending, total obtained descending, student ID
// ascending as the deterministic tie-break.
func (r *ReportCardRepository) ListByScope(ctx context.Context, examID, classID, sectionID string) ([]models.ReportCard, error) {
	query := fmt.Sprintf(`SELECT %s FROM report_cards WHERE exam_id = $1 AND class_id = $2 AND section_id = $3
        ORDER BY percentage DESC, total_obtained DESC, student_id`, reportCardColumns)
	var cards []models.ReportCard
	if err := sqlx.SelectContext(ctx, r.db, &cards, query, examID, classID, sectionID); err != nil {
		return nil, fmt.Errorf("list report cards: %w", err)
	}
	return cards, nil
}

// UpdateRank assigns the rank for one report card row.
func (r *ReportCardRepository) UpdateRank(ctx context.Context, id string, rank int) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE report_cards SET rank = $2 WHERE id = $1`, id, rank); err != nil {
		return fmt.Errorf("update report card rank: %w", err)
	}
	return nil
}

// SetPublished flips the visibility flag for every report card in scope.
func (r *ReportCardRepository) SetPublished(ctx context.Context, examID, classID, sectionID string, published bool) error {
	const query = `UPDATE report_cards SET published = $4 WHERE exam_id = $1 AND class_id = $2 AND section_id = $3`
	if _, err := r.db.ExecContext(ctx, query, examID, classID, sectionID, published); err != nil {
		return fmt.Errorf("set report cards published: %w", err)
	}
	return nil
}

// FindByStudent returns one student's report card for an exam.
func (r *ReportCardRepository) FindByStudent(ctx context.Context, examID, studentID string) (*models.ReportCard, error) {
	query := fmt.Sprintf(`SELECT %s FROM report_cards WHERE exam_id = $1 AND student_id = $2`, reportCardColumns)
	var card models.ReportCard
	if err := sqlx.GetContext(ctx, r.db, &card, query, examID, studentID); err != nil {
		return nil, err
	}
	return &card, nil
}
