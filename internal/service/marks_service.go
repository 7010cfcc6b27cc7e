package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/vidyalaya/exam-api/internal/grading"
	"github.com/vidyalaya/exam-api/internal/models"
	"github.com/vidyalaya/exam-api/internal/repository"
	appErrors "github.com/vidyalaya/exam-api/pkg/errors"
	"github.com/vidyalaya/exam-api/pkg/export"
)

// MarkEntryInput is one student's submitted marks.
type MarkEntryInput struct {
	StudentID      string   `json:"student_id" validate:"required"`
	TheoryMarks    *float64 `json:"theory_marks"`
	PracticalMarks *float64 `json:"practical_marks"`
	IsAbsent       bool     `json:"is_absent"`
	Remark         *string  `json:"remark"`
}

// SubmitMarksRequest is a batch of entries for one exam subject and section.
type SubmitMarksRequest struct {
	ExamID        string           `json:"exam_id" validate:"required"`
	ExamSubjectID string           `json:"exam_subject_id" validate:"required"`
	SectionID     string           `json:"section_id" validate:"required"`
	Entries       []MarkEntryInput `json:"entries" validate:"required,min=1,dive"`
}

// RejectedEntry names a student whose entry was filtered out of a batch,
// with the reason a submitter can act on.
type RejectedEntry struct {
	StudentID string `json:"student_id"`
	Reason    string `json:"reason"`
}

// SubmitMarksResult reports what a batch persisted and what it filtered.
type SubmitMarksResult struct {
	Saved    []models.ExamResult `json:"saved"`
	Rejected []RejectedEntry     `json:"rejected,omitempty"`
}

// EntrySheet is the roster a marks submitter works against, plus whatever
// results already exist for the subject.
type EntrySheet struct {
	Subject models.ExamSubject           `json:"subject"`
	Roster  []models.StudentEnrollment   `json:"roster"`
	Results map[string]models.ExamResult `json:"results"`
}

// MarksService validates and persists mark submissions.
type MarksService struct {
	store     repository.Datastore
	rules     grading.Rules
	validator *validator.Validate
	logger    *zap.Logger
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
}

// NewMarksService constructs MarksService.
func NewMarksService(store repository.Datastore, rules grading.Rules, validate *validator.Validate, logger *zap.Logger) *MarksService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarksService{
		store:     store,
		rules:     rules,
		validator: validate,
		logger:    logger,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
	}
}

// Submit runs the full validation pipeline and upserts the batch inside one
// transaction. Students without an advanced-track subject enrollment are
// rejected individually; any other validation failure aborts the whole
// batch with nothing persisted.
func (s *MarksService) Submit(ctx context.Context, actor models.Actor, req SubmitMarksRequest) (*SubmitMarksResult, error) {
	if err := Authorize(CapSubmitMarks, actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid marks payload")
	}
	out := &SubmitMarksResult{}
	err := s.store.InTx(ctx, func(ds repository.Datastore) error {
		exam, subject, err := s.loadTarget(ctx, ds, actor, req.ExamID, req.ExamSubjectID)
		if err != nil {
			return err
		}
		if exam.Status != models.ExamStatusPublished {
			return appErrors.StateConflict(string(exam.Status), string(models.ExamStatusPublished))
		}
		if err := s.authorizeSubmitter(ctx, ds, actor, subject.ClassSubjectID, req.SectionID); err != nil {
			return err
		}
		roster, err := s.rosterByStudent(ctx, ds, subject.ClassID, req.SectionID, exam.AcademicYearID)
		if err != nil {
			return err
		}
		entries := req.Entries
		for _, entry := range entries {
			if _, ok := roster[entry.StudentID]; !ok {
				return appErrors.Clone(appErrors.ErrValidation,
					"student "+entry.StudentID+" is not actively enrolled in this class section")
			}
		}
		entries, rejected, err := s.filterAdvancedEnrollment(ctx, ds, actor.SchoolID, subject, entries)
		if err != nil {
			return err
		}
		out.Rejected = rejected
		for _, entry := range entries {
			result, err := buildResult(actor, *subject, roster[entry.StudentID], entry)
			if err != nil {
				return err
			}
			if err := ds.UpsertExamResult(ctx, result); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save result")
			}
			out.Saved = append(out.Saved, *result)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("marks submitted",
		zap.String("exam_subject_id", req.ExamSubjectID),
		zap.String("section_id", req.SectionID),
		zap.String("actor", actor.UserID),
		zap.Int("saved", len(out.Saved)),
		zap.Int("rejected", len(out.Rejected)))
	return out, nil
}

// FetchEntrySheet returns the active roster for a subject's section together
// with existing results, for pre-filling an entry form.
func (s *MarksService) FetchEntrySheet(ctx context.Context, actor models.Actor, examID, examSubjectID, sectionID string) (*EntrySheet, error) {
	if err := Authorize(CapReadMarks, actor); err != nil {
		return nil, err
	}
	exam, subject, err := s.loadTarget(ctx, s.store, actor, examID, examSubjectID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeSubmitter(ctx, s.store, actor, subject.ClassSubjectID, sectionID); err != nil {
		return nil, err
	}
	roster, err := s.store.ListActiveEnrollments(ctx, subject.ClassID, sectionID, exam.AcademicYearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	results, err := s.store.ListResultsByExamSubject(ctx, examSubjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load results")
	}
	byStudent := make(map[string]models.ExamResult, len(results))
	for _, r := range results {
		byStudent[r.StudentID] = r
	}
	return &EntrySheet{Subject: *subject, Roster: roster, Results: byStudent}, nil
}

// ExportEntrySheet renders the entry sheet as CSV or PDF, a blank grid a
// teacher can fill in by hand during invigilation.
func (s *MarksService) ExportEntrySheet(ctx context.Context, actor models.Actor, examID, examSubjectID, sectionID, format string) ([]byte, string, error) {
	sheet, err := s.FetchEntrySheet(ctx, actor, examID, examSubjectID, sectionID)
	if err != nil {
		return nil, "", err
	}
	dataset := export.Dataset{Columns: []export.Column{
		{Title: "Roll", Numeric: true},
		{Title: "Student"},
		{Title: "Theory", Numeric: true},
		{Title: "Practical", Numeric: true},
		{Title: "Absent"},
		{Title: "Remark"},
	}}
	for _, enrollment := range sheet.Roster {
		row := map[string]string{
			"Roll":    strconv.Itoa(enrollment.RollNumber),
			"Student": enrollment.StudentName,
		}
		if result, ok := sheet.Results[enrollment.StudentID]; ok {
			if result.TheoryMarks != nil {
				row["Theory"] = strconv.FormatFloat(*result.TheoryMarks, 'f', -1, 64)
			}
			if result.PracticalMarks != nil {
				row["Practical"] = strconv.FormatFloat(*result.PracticalMarks, 'f', -1, 64)
			}
			if result.IsAbsent {
				row["Absent"] = "yes"
			}
			if result.Remark != nil {
				row["Remark"] = *result.Remark
			}
		}
		dataset.Rows = append(dataset.Rows, row)
	}
	switch strings.ToLower(format) {
	case "csv", "":
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return data, "marks-entry-" + examSubjectID + ".csv", nil
	case "pdf":
		data, err := s.pdf.Render(dataset, "Marks Entry Sheet")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return data, "marks-entry-" + examSubjectID + ".pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format: "+format)
	}
}

func (s *MarksService) loadTarget(ctx context.Context, ds repository.Datastore, actor models.Actor, examID, examSubjectID string) (*models.Exam, *models.ExamSubject, error) {
	exam, err := ds.FindExam(ctx, actor.SchoolID, examID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	subject, err := ds.FindExamSubject(ctx, examSubjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "exam subject not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam subject")
	}
	if subject.ExamID != exam.ID {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "exam subject not found")
	}
	return exam, subject, nil
}

// authorizeSubmitter enforces the teaching-assignment rule: privileged
// roles bypass it, everyone else needs the exact (scoring unit, section)
// assignment.
func (s *MarksService) authorizeSubmitter(ctx context.Context, ds repository.Datastore, actor models.Actor, classSubjectID, sectionID string) error {
	if actor.Role.Privileged() {
		return nil
	}
	assigned, err := ds.TeacherAssignmentExists(ctx, actor.UserID, classSubjectID, sectionID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teaching assignment")
	}
	if !assigned {
		return appErrors.Clone(appErrors.ErrForbidden, "no teaching assignment for this subject and section")
	}
	return nil
}

func (s *MarksService) rosterByStudent(ctx context.Context, ds repository.Datastore, classID, sectionID, academicYearID string) (map[string]models.StudentEnrollment, error) {
	enrollments, err := ds.ListActiveEnrollments(ctx, classID, sectionID, academicYearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	roster := make(map[string]models.StudentEnrollment, len(enrollments))
	for _, e := range enrollments {
		roster[e.StudentID] = e
	}
	return roster, nil
}

// filterAdvancedEnrollment drops entries for students lacking an explicit
// subject enrollment on advanced-track classes. Electives copied from the
// wrong track have produced phantom submissions before, so the filter names
// each rejected student instead of silently skipping. An all-rejected batch
// is an error, not an empty success.
func (s *MarksService) filterAdvancedEnrollment(ctx context.Context, ds repository.Datastore, schoolID string, subject *models.ExamSubject, entries []MarkEntryInput) ([]MarkEntryInput, []RejectedEntry, error) {
	class, err := ds.FindClass(ctx, schoolID, subject.ClassID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if !s.rules.Advanced(class.GradeLevel) {
		return entries, nil, nil
	}
	studentIDs := make([]string, 0, len(entries))
	for _, entry := range entries {
		studentIDs = append(studentIDs, entry.StudentID)
	}
	enrolled, err := ds.SubjectEnrolledStudents(ctx, subject.ClassSubjectID, studentIDs)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject enrollment")
	}
	var kept []MarkEntryInput
	var rejected []RejectedEntry
	var rejectedIDs []string
	for _, entry := range entries {
		if _, ok := enrolled[entry.StudentID]; ok {
			kept = append(kept, entry)
			continue
		}
		rejectedIDs = append(rejectedIDs, entry.StudentID)
		rejected = append(rejected, RejectedEntry{
			StudentID: entry.StudentID,
			Reason:    "not enrolled in this subject for the advanced track",
		})
	}
	if len(kept) == 0 {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation,
			"no submitted students hold a subject enrollment for this unit: "+strings.Join(rejectedIDs, ", "))
	}
	return kept, rejected, nil
}

// buildResult validates one entry against the snapshot bounds and produces
// the row to persist. An absence flag nulls the theory value regardless of
// what was submitted.
func buildResult(actor models.Actor, subject models.ExamSubject, enrollment models.StudentEnrollment, entry MarkEntryInput) (*models.ExamResult, error) {
	theory := entry.TheoryMarks
	practical := entry.PracticalMarks
	// Discard before validation: a stray theory number on an absent student
	// must not abort the batch.
	if entry.IsAbsent {
		theory = nil
	}
	if theory != nil {
		if !subject.HasTheory {
			return nil, markError(entry.StudentID, "theory marks submitted but the subject has no theory component")
		}
		if *theory < 0 || *theory > subject.TheoryFullMarks {
			return nil, markError(entry.StudentID, fmt.Sprintf("theory marks must be between 0 and %g", subject.TheoryFullMarks))
		}
	}
	if practical != nil {
		if !subject.HasPractical {
			return nil, markError(entry.StudentID, "practical marks submitted but the subject has no practical component")
		}
		if *practical < 0 || *practical > subject.PracticalFullMarks {
			return nil, markError(entry.StudentID, fmt.Sprintf("practical marks must be between 0 and %g", subject.PracticalFullMarks))
		}
	}
	return &models.ExamResult{
		ExamSubjectID:  subject.ID,
		StudentID:      entry.StudentID,
		EnrollmentID:   enrollment.ID,
		TheoryMarks:    theory,
		PracticalMarks: practical,
		IsAbsent:       entry.IsAbsent,
		Remark:         entry.Remark,
		EnteredBy:      actor.UserID,
		EnteredByRole:  actor.Role,
	}, nil
}

func markError(studentID, reason string) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrValidation, "student "+studentID+": "+reason)
}
