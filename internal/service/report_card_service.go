package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vidyalaya/exam-api/internal/grading"
	"github.com/vidyalaya/exam-api/internal/models"
	"github.com/vidyalaya/exam-api/internal/repository"
	appErrors "github.com/vidyalaya/exam-api/pkg/errors"
)

// ReportCardService aggregates stored results into ranked, publishable
// report cards.
type ReportCardService struct {
	store    repository.Datastore
	rules    grading.Rules
	cache    *repository.CacheRepository
	cacheTTL time.Duration
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewReportCardService constructs ReportCardService. cache and metrics may
// be nil when the read cache or instrumentation is disabled.
func NewReportCardService(store repository.Datastore, rules grading.Rules, cache *repository.CacheRepository, cacheTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *ReportCardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportCardService{store: store, rules: rules, cache: cache, cacheTTL: cacheTTL, metrics: metrics, logger: logger}
}

// Generate aggregates every stored result of the exam for one class-section
// into report cards, then re-ranks the whole scope. The whole run is one
// transaction: a partial failure leaves no student ranked against a stale
// total.
func (s *ReportCardService) Generate(ctx context.Context, actor models.Actor, examID, classID, sectionID string) ([]models.ReportCard, error) {
	if err := Authorize(CapGenerateReportCards, actor); err != nil {
		return nil, err
	}
	var cards []models.ReportCard
	err := s.store.InTx(ctx, func(ds repository.Datastore) error {
		exam, err := ds.FindExam(ctx, actor.SchoolID, examID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "exam not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
		}
		class, err := ds.FindClass(ctx, actor.SchoolID, classID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "class not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
		}
		// Academic year comes from the exam, never re-queried, so a
		// generation run can't leak enrollments from another year.
		roster, err := ds.ListActiveEnrollments(ctx, classID, sectionID, exam.AcademicYearID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
		}
		studentIDs := make([]string, 0, len(roster))
		for _, e := range roster {
			studentIDs = append(studentIDs, e.StudentID)
		}
		queryStart := time.Now()
		rowsByStudent, err := ds.ResultRowsByExamForStudents(ctx, examID, studentIDs)
		s.metrics.ObserveDBQuery("report_card_aggregate", time.Since(queryStart))
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load results")
		}
		advanced := s.rules.Advanced(class.GradeLevel)
		var components map[string][]models.SubjectComponent
		if advanced {
			components, err = s.componentsFor(ctx, ds, rowsByStudent)
			if err != nil {
				return err
			}
		}
		now := time.Now().UTC()
		for _, enrollment := range roster {
			rows := rowsByStudent[enrollment.StudentID]
			// An exam need not cover every subject for every student; no
			// results means no card, not a zero-score card.
			if len(rows) == 0 {
				continue
			}
			card := buildCard(examID, enrollment, rows, advanced, components)
			card.GeneratedAt = now
			if err := ds.UpsertReportCard(ctx, &card); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save report card")
			}
		}
		// Ranking always runs over the complete stored scope, not the
		// in-memory tallies, so incremental regeneration re-ranks everyone.
		ranked, err := ds.ListReportCards(ctx, examID, classID, sectionID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list report cards")
		}
		for i := range ranked {
			rank := i + 1
			if err := ds.UpdateReportCardRank(ctx, ranked[i].ID, rank); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign rank")
			}
			ranked[i].Rank = &rank
		}
		cards = ranked
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, examID)
	s.logger.Info("report cards generated",
		zap.String("exam_id", examID),
		zap.String("class_id", classID),
		zap.String("section_id", sectionID),
		zap.String("actor", actor.UserID),
		zap.Int("cards", len(cards)))
	return cards, nil
}

// Publish flips the visibility flag for every report card in scope.
// Idempotent; re-publishing an already-published scope is a no-op.
func (s *ReportCardService) Publish(ctx context.Context, actor models.Actor, examID, classID, sectionID string, published bool) error {
	if err := Authorize(CapPublishReportCards, actor); err != nil {
		return err
	}
	if err := s.store.SetReportCardsPublished(ctx, examID, classID, sectionID, published); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish report cards")
	}
	s.invalidate(ctx, examID)
	s.logger.Info("report cards publish flag set",
		zap.String("exam_id", examID),
		zap.String("class_id", classID),
		zap.String("section_id", sectionID),
		zap.Bool("published", published),
		zap.String("actor", actor.UserID))
	return nil
}

// Fetch returns one student's report card with the per-subject breakdown.
// Students read only their own, guardians only their token-linked wards,
// and both only once published; staff roles read regardless.
func (s *ReportCardService) Fetch(ctx context.Context, actor models.Actor, examID, studentID string) (*models.ReportCardDetail, error) {
	selfOnly := !Allowed(CapReadAnyReportCard, actor.Role)
	if selfOnly {
		if err := Authorize(CapReadOwnReportCard, actor); err != nil {
			return nil, err
		}
		switch actor.Role {
		case models.RoleStudent:
			if studentID != actor.UserID {
				return nil, appErrors.Clone(appErrors.ErrForbidden, "students may only read their own report card")
			}
		case models.RoleGuardian:
			if !actor.Ward(studentID) {
				return nil, appErrors.Clone(appErrors.ErrForbidden, "guardians may only read a linked ward's report card")
			}
		}
	}
	key := fmt.Sprintf("reportcard:%s:%s", examID, studentID)
	if s.cache != nil {
		var cached models.ReportCardDetail
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.RecordCacheLookup(true)
			if selfOnly && !cached.Published {
				return nil, appErrors.Clone(appErrors.ErrForbidden, "report card is not published yet")
			}
			return &cached, nil
		}
		s.metrics.RecordCacheLookup(false)
	}
	card, err := s.store.FindReportCard(ctx, examID, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report card not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report card")
	}
	if selfOnly && !card.Published {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report card is not published yet")
	}
	detail, err := s.buildDetail(ctx, actor.SchoolID, examID, studentID, card)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, detail, s.cacheTTL)
	}
	return detail, nil
}

func (s *ReportCardService) buildDetail(ctx context.Context, schoolID, examID, studentID string, card *models.ReportCard) (*models.ReportCardDetail, error) {
	queryStart := time.Now()
	rowsByStudent, err := s.store.ResultRowsByExamForStudents(ctx, examID, []string{studentID})
	s.metrics.ObserveDBQuery("report_card_detail", time.Since(queryStart))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load results")
	}
	rows := rowsByStudent[studentID]
	class, err := s.store.FindClass(ctx, schoolID, card.ClassID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	advanced := s.rules.Advanced(class.GradeLevel)
	var components map[string][]models.SubjectComponent
	if advanced {
		components, err = s.componentsFor(ctx, s.store, rowsByStudent)
		if err != nil {
			return nil, err
		}
	}
	detail := &models.ReportCardDetail{ReportCard: *card}
	for _, row := range rows {
		detail.Subjects = append(detail.Subjects, subjectLine(row, advanced, components))
	}
	return detail, nil
}

func (s *ReportCardService) componentsFor(ctx context.Context, ds repository.Datastore, rowsByStudent map[string][]models.ExamResultRow) (map[string][]models.SubjectComponent, error) {
	seen := make(map[string]struct{})
	var ids []string
	for _, rows := range rowsByStudent {
		for _, row := range rows {
			if _, ok := seen[row.ClassSubjectID]; ok {
				continue
			}
			seen[row.ClassSubjectID] = struct{}{}
			ids = append(ids, row.ClassSubjectID)
		}
	}
	if len(ids) == 0 {
		return map[string][]models.SubjectComponent{}, nil
	}
	components, err := ds.ListSubjectComponents(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject components")
	}
	return components, nil
}

func (s *ReportCardService) invalidate(ctx context.Context, examID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "reportcard:"+examID+":*"); err != nil {
		s.logger.Warn("report card cache invalidation failed", zap.String("exam_id", examID), zap.Error(err))
	}
}

// buildCard aggregates one student's result rows into the report-card row.
func buildCard(examID string, enrollment models.StudentEnrollment, rows []models.ExamResultRow, advanced bool, components map[string][]models.SubjectComponent) models.ReportCard {
	card := models.ReportCard{
		ExamID:       examID,
		StudentID:    enrollment.StudentID,
		EnrollmentID: enrollment.ID,
		ClassID:      enrollment.ClassID,
		SectionID:    enrollment.SectionID,
	}
	var all []grading.ComponentResult
	for _, row := range rows {
		card.TotalObtained += row.Obtained()
		card.TotalFullMarks += row.FullMarks
		if advanced {
			theory, practical := componentResults(row, components[row.ClassSubjectID])
			if theory != nil {
				all = append(all, *theory)
			}
			if practical != nil {
				all = append(all, *practical)
			}
		}
	}
	card.Percentage = grading.Percent(card.TotalObtained, card.TotalFullMarks)
	if advanced {
		gpa := grading.WeightedGPA(all)
		card.GPA = &gpa
		card.OverallGrade = grading.LetterFromGPA(gpa)
		for _, c := range all {
			if c.Absent {
				card.OverallGrade = grading.GradeAbsent
				break
			}
		}
	} else {
		card.OverallGrade = grading.LetterGrade(card.Percentage)
	}
	return card
}

// componentResults grades the theory and practical sides of one advanced
// result row. Component rows supply the per-component full marks and credit
// hours; when a subject has no split rows the snapshot's marks structure is
// used with the credit hours apportioned by full-marks share.
func componentResults(row models.ExamResultRow, split []models.SubjectComponent) (*grading.ComponentResult, *grading.ComponentResult) {
	var theory, practical *grading.ComponentResult
	theoryFull, theoryCredits := row.TheoryFullMarks, apportionCredits(row, row.TheoryFullMarks)
	practicalFull, practicalCredits := row.PracticalFullMarks, apportionCredits(row, row.PracticalFullMarks)
	for _, c := range split {
		switch c.Type {
		case models.ComponentTheory:
			theoryFull, theoryCredits = c.FullMarks, c.CreditHours
		case models.ComponentPractical:
			practicalFull, practicalCredits = c.FullMarks, c.CreditHours
		}
	}
	if row.HasTheory {
		r := grading.GradeComponent(grading.ComponentScore{
			Obtained:    deref(row.TheoryMarks),
			FullMarks:   theoryFull,
			CreditHours: theoryCredits,
			Absent:      row.IsAbsent,
		})
		theory = &r
	}
	if row.HasPractical {
		r := grading.GradeComponent(grading.ComponentScore{
			Obtained:    deref(row.PracticalMarks),
			FullMarks:   practicalFull,
			CreditHours: practicalCredits,
			Absent:      row.IsAbsent && row.PracticalMarks == nil,
		})
		practical = &r
	}
	return theory, practical
}

func subjectLine(row models.ExamResultRow, advanced bool, components map[string][]models.SubjectComponent) models.ReportCardSubject {
	line := models.ReportCardSubject{
		ExamSubjectID:  row.ExamSubjectID,
		ClassSubjectID: row.ClassSubjectID,
		SubjectName:    row.SubjectName,
		FullMarks:      row.FullMarks,
		PassMarks:      row.PassMarks,
		TheoryMarks:    row.TheoryMarks,
		PracticalMarks: row.PracticalMarks,
		Obtained:       row.Obtained(),
		IsAbsent:       row.IsAbsent,
	}
	if advanced {
		theory, practical := componentResults(row, components[row.ClassSubjectID])
		line.Grade = grading.SubjectFinal(theory, practical)
		if point, ok := stricterPoint(theory, practical); ok {
			line.GradePoint = &point
		}
	} else {
		line.Grade = grading.LetterGrade(grading.Percent(line.Obtained, row.FullMarks))
	}
	return line
}

// stricterPoint returns the lower grade point of the present components.
func stricterPoint(theory, practical *grading.ComponentResult) (float64, bool) {
	switch {
	case theory != nil && practical != nil:
		if practical.Point < theory.Point {
			return practical.Point, true
		}
		return theory.Point, true
	case theory != nil:
		return theory.Point, true
	case practical != nil:
		return practical.Point, true
	}
	return 0, false
}

func apportionCredits(row models.ExamResultRow, componentFull float64) float64 {
	if row.FullMarks <= 0 {
		return row.CreditHours
	}
	return row.CreditHours * componentFull / row.FullMarks
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
