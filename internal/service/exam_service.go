package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/vidyalaya/exam-api/internal/models"
	"github.com/vidyalaya/exam-api/internal/repository"
	appErrors "github.com/vidyalaya/exam-api/pkg/errors"
)

// CreateExamRequest creates a DRAFT exam, optionally bulk-attaching every
// scoring unit of the listed classes as snapshots.
type CreateExamRequest struct {
	Name           string     `json:"name" validate:"required"`
	ExamType       string     `json:"exam_type" validate:"required"`
	AcademicYearID string     `json:"academic_year_id" validate:"required"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	ClassIDs       []string   `json:"class_ids"`
}

// UpdateExamRequest carries the mutable exam fields.
type UpdateExamRequest struct {
	Name      string     `json:"name" validate:"required"`
	ExamType  string     `json:"exam_type" validate:"required"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

// ExamSubjectInput links one scoring unit to an exam. The optional override
// fields replace the copied configuration values in the snapshot; absent
// overrides keep the live configuration's numbers.
type ExamSubjectInput struct {
	ClassSubjectID     string     `json:"class_subject_id" validate:"required"`
	ExamDate           *time.Time `json:"exam_date"`
	TheoryFullMarks    *float64   `json:"theory_full_marks"`
	PracticalFullMarks *float64   `json:"practical_full_marks"`
	FullMarks          *float64   `json:"full_marks"`
	PassMarks          *float64   `json:"pass_marks"`
}

// ExamService owns the exam lifecycle and the snapshot mechanism.
type ExamService struct {
	store     repository.Datastore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExamService constructs ExamService.
func NewExamService(store repository.Datastore, validate *validator.Validate, logger *zap.Logger) *ExamService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamService{store: store, validator: validate, logger: logger}
}

// Create inserts a DRAFT exam and, when class IDs are given, snapshots each
// class's current scoring configuration into exam subjects.
func (s *ExamService) Create(ctx context.Context, actor models.Actor, req CreateExamRequest) (*models.ExamDetail, error) {
	if err := Authorize(CapManageExams, actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
	}
	detail := &models.ExamDetail{}
	err := s.store.InTx(ctx, func(ds repository.Datastore) error {
		exam := &models.Exam{
			SchoolID:       actor.SchoolID,
			AcademicYearID: req.AcademicYearID,
			Name:           req.Name,
			ExamType:       req.ExamType,
			Status:         models.ExamStatusDraft,
			StartDate:      req.StartDate,
			EndDate:        req.EndDate,
		}
		if err := ds.CreateExam(ctx, exam); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exam")
		}
		detail.Exam = *exam
		if len(req.ClassIDs) == 0 {
			return nil
		}
		classSubjects, err := ds.ListClassSubjectsByClasses(ctx, actor.SchoolID, req.AcademicYearID, req.ClassIDs)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scoring configuration")
		}
		for _, cs := range classSubjects {
			subject := snapshotFromClassSubject(exam.ID, cs, ExamSubjectInput{})
			if err := ds.UpsertExamSubject(ctx, &subject); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to attach exam subject")
			}
			detail.Subjects = append(detail.Subjects, subject)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("exam created",
		zap.String("exam_id", detail.ID),
		zap.String("school_id", actor.SchoolID),
		zap.String("actor", actor.UserID),
		zap.Int("subjects", len(detail.Subjects)))
	return detail, nil
}

// Get returns an exam with its attached subjects.
func (s *ExamService) Get(ctx context.Context, actor models.Actor, examID string) (*models.ExamDetail, error) {
	if err := Authorize(CapReadExams, actor); err != nil {
		return nil, err
	}
	exam, err := s.findExam(ctx, s.store, actor.SchoolID, examID)
	if err != nil {
		return nil, err
	}
	subjects, err := s.store.ListExamSubjects(ctx, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exam subjects")
	}
	return &models.ExamDetail{Exam: *exam, Subjects: subjects}, nil
}

// List returns exams for the caller's school.
func (s *ExamService) List(ctx context.Context, actor models.Actor, filter models.ExamFilter) ([]models.Exam, error) {
	if err := Authorize(CapReadExams, actor); err != nil {
		return nil, err
	}
	filter.SchoolID = actor.SchoolID
	exams, err := s.store.ListExams(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exams")
	}
	return exams, nil
}

// Update rewrites mutable exam fields. Permitted only while DRAFT.
func (s *ExamService) Update(ctx context.Context, actor models.Actor, examID string, req UpdateExamRequest) (*models.Exam, error) {
	if err := Authorize(CapManageExams, actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
	}
	var updated *models.Exam
	err := s.store.InTx(ctx, func(ds repository.Datastore) error {
		exam, err := s.findExam(ctx, ds, actor.SchoolID, examID)
		if err != nil {
			return err
		}
		if exam.Status != models.ExamStatusDraft {
			return appErrors.StateConflict(string(exam.Status), string(models.ExamStatusDraft))
		}
		exam.Name = req.Name
		exam.ExamType = req.ExamType
		exam.StartDate = req.StartDate
		exam.EndDate = req.EndDate
		if err := ds.UpdateExam(ctx, exam); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exam")
		}
		updated = exam
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// LinkOrUpdateSubjects attaches scoring units to a DRAFT exam or refreshes
// existing snapshots from the live configuration plus overrides.
func (s *ExamService) LinkOrUpdateSubjects(ctx context.Context, actor models.Actor, examID string, inputs []ExamSubjectInput) ([]models.ExamSubject, error) {
	if err := Authorize(CapManageExams, actor); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one subject required")
	}
	for _, input := range inputs {
		if err := s.validator.Struct(input); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
		}
	}
	var subjects []models.ExamSubject
	err := s.store.InTx(ctx, func(ds repository.Datastore) error {
		exam, err := s.findExam(ctx, ds, actor.SchoolID, examID)
		if err != nil {
			return err
		}
		if exam.Status != models.ExamStatusDraft {
			return appErrors.StateConflict(string(exam.Status), string(models.ExamStatusDraft))
		}
		for _, input := range inputs {
			cs, err := ds.FindClassSubject(ctx, actor.SchoolID, input.ClassSubjectID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return appErrors.Clone(appErrors.ErrNotFound, "scoring unit not found: "+input.ClassSubjectID)
				}
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scoring unit")
			}
			subject := snapshotFromClassSubject(examID, *cs, input)
			if subject.PassMarks > subject.FullMarks || subject.FullMarks < 0 || subject.PassMarks < 0 {
				return appErrors.Clone(appErrors.ErrValidation, "invalid marks override for subject "+cs.SubjectName)
			}
			if err := ds.UpsertExamSubject(ctx, &subject); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link exam subject")
			}
			subjects = append(subjects, subject)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return subjects, nil
}

// Publish moves a DRAFT exam with at least one subject to PUBLISHED, stamps
// the publish time and locks every referenced scoring unit so grading
// inputs cannot drift under the live exam.
func (s *ExamService) Publish(ctx context.Context, actor models.Actor, examID string) (*models.Exam, error) {
	return s.transition(ctx, actor, examID, models.ExamStatusPublished, func(ctx context.Context, ds repository.Datastore, exam *models.Exam) error {
		if exam.Status != models.ExamStatusDraft {
			return appErrors.StateConflict(string(exam.Status), string(models.ExamStatusDraft))
		}
		subjects, err := ds.ListExamSubjects(ctx, examID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exam subjects")
		}
		if len(subjects) == 0 {
			return appErrors.Clone(appErrors.ErrValidation, "cannot publish an exam with no subjects attached")
		}
		ids := make([]string, 0, len(subjects))
		for _, subject := range subjects {
			ids = append(ids, subject.ClassSubjectID)
		}
		if err := ds.LockClassSubjects(ctx, ids); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock scoring configuration")
		}
		return nil
	})
}

// Lock freezes result writes on a PUBLISHED exam.
func (s *ExamService) Lock(ctx context.Context, actor models.Actor, examID string) (*models.Exam, error) {
	return s.transition(ctx, actor, examID, models.ExamStatusLocked, nil)
}

// Unlock reopens result writes on a LOCKED exam.
func (s *ExamService) Unlock(ctx context.Context, actor models.Actor, examID string) (*models.Exam, error) {
	return s.transition(ctx, actor, examID, models.ExamStatusPublished, nil)
}

func (s *ExamService) transition(ctx context.Context, actor models.Actor, examID string, next models.ExamStatus, guard func(context.Context, repository.Datastore, *models.Exam) error) (*models.Exam, error) {
	if err := Authorize(CapManageExams, actor); err != nil {
		return nil, err
	}
	var result *models.Exam
	err := s.store.InTx(ctx, func(ds repository.Datastore) error {
		exam, err := s.findExam(ctx, ds, actor.SchoolID, examID)
		if err != nil {
			return err
		}
		if !exam.Status.CanTransition(next) {
			return appErrors.StateConflict(string(exam.Status), requiredSource(exam.Status, next))
		}
		if guard != nil {
			if err := guard(ctx, ds, exam); err != nil {
				return err
			}
		}
		var publishedAt *time.Time
		if exam.Status == models.ExamStatusDraft && next == models.ExamStatusPublished {
			now := time.Now().UTC()
			publishedAt = &now
			exam.PublishedAt = publishedAt
		}
		if err := ds.UpdateExamStatus(ctx, examID, next, publishedAt); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exam status")
		}
		exam.Status = next
		result = exam
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("exam status changed",
		zap.String("exam_id", examID),
		zap.String("status", string(next)),
		zap.String("actor", actor.UserID))
	return result, nil
}

// Delete removes an exam. Unconditional only while DRAFT; a published or
// locked exam may be deleted only when no results exist, otherwise the
// caller is advised to lock instead.
func (s *ExamService) Delete(ctx context.Context, actor models.Actor, examID string) error {
	if err := Authorize(CapManageExams, actor); err != nil {
		return err
	}
	err := s.store.InTx(ctx, func(ds repository.Datastore) error {
		exam, err := s.findExam(ctx, ds, actor.SchoolID, examID)
		if err != nil {
			return err
		}
		if exam.Status != models.ExamStatusDraft {
			count, err := ds.CountResultsByExam(ctx, examID)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count results")
			}
			if count > 0 {
				return appErrors.Clone(appErrors.ErrStateConflict, "exam has recorded results; lock the exam instead of deleting it")
			}
		}
		if err := ds.DeleteExam(ctx, examID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete exam")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("exam deleted", zap.String("exam_id", examID), zap.String("actor", actor.UserID))
	return nil
}

// DeleteSubject unlinks one snapshot. Only while DRAFT and only when no
// results reference it.
func (s *ExamService) DeleteSubject(ctx context.Context, actor models.Actor, examID, examSubjectID string) error {
	if err := Authorize(CapManageExams, actor); err != nil {
		return err
	}
	return s.store.InTx(ctx, func(ds repository.Datastore) error {
		exam, err := s.findExam(ctx, ds, actor.SchoolID, examID)
		if err != nil {
			return err
		}
		if exam.Status != models.ExamStatusDraft {
			return appErrors.StateConflict(string(exam.Status), string(models.ExamStatusDraft))
		}
		subject, err := ds.FindExamSubject(ctx, examSubjectID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "exam subject not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam subject")
		}
		if subject.ExamID != examID {
			return appErrors.Clone(appErrors.ErrNotFound, "exam subject not found")
		}
		count, err := ds.CountResultsByExamSubject(ctx, examSubjectID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count subject results")
		}
		if count > 0 {
			return appErrors.Clone(appErrors.ErrStateConflict, "exam subject has recorded results and cannot be removed")
		}
		if err := ds.DeleteExamSubject(ctx, examSubjectID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete exam subject")
		}
		return nil
	})
}

func (s *ExamService) findExam(ctx context.Context, ds repository.Datastore, schoolID, examID string) (*models.Exam, error) {
	exam, err := ds.FindExam(ctx, schoolID, examID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	return exam, nil
}

// snapshotFromClassSubject copies a scoring unit's marks structure into an
// exam-bound snapshot, applying any per-link overrides.
func snapshotFromClassSubject(examID string, cs models.ClassSubject, input ExamSubjectInput) models.ExamSubject {
	subject := models.ExamSubject{
		ExamID:             examID,
		ClassSubjectID:     cs.ID,
		ClassID:            cs.ClassID,
		ExamDate:           input.ExamDate,
		HasTheory:          cs.HasTheory,
		HasPractical:       cs.HasPractical,
		TheoryFullMarks:    cs.TheoryFullMarks,
		PracticalFullMarks: cs.PracticalFullMarks,
		FullMarks:          cs.FullMarks,
		PassMarks:          cs.PassMarks,
	}
	if input.TheoryFullMarks != nil {
		subject.TheoryFullMarks = *input.TheoryFullMarks
	}
	if input.PracticalFullMarks != nil {
		subject.PracticalFullMarks = *input.PracticalFullMarks
	}
	if input.FullMarks != nil {
		subject.FullMarks = *input.FullMarks
	}
	if input.PassMarks != nil {
		subject.PassMarks = *input.PassMarks
	}
	return subject
}

func requiredSource(current, next models.ExamStatus) string {
	switch next {
	case models.ExamStatusPublished:
		if current == models.ExamStatusLocked {
			return string(models.ExamStatusLocked)
		}
		return string(models.ExamStatusDraft)
	case models.ExamStatusLocked:
		return string(models.ExamStatusPublished)
	}
	return string(current)
}
