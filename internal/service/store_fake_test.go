package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/vidyalaya/exam-api/internal/models"
	"github.com/vidyalaya/exam-api/internal/repository"
)

// fakeStore is an in-memory Datastore for service tests. InTx simply runs
// the callback against the same fake, which matches the contract the
// services rely on: same-scope reads observe same-scope writes.
type fakeStore struct {
	exams              map[string]*models.Exam
	subjects           map[string]*models.ExamSubject
	results            map[string]*models.ExamResult
	classSubjects      map[string]*models.ClassSubject
	components         map[string][]models.SubjectComponent
	classes            map[string]*models.Class
	enrollments        []models.StudentEnrollment
	subjectEnrollments map[string]map[string]struct{}
	assignments        map[string]struct{}
	cards              map[string]*models.ReportCard
	seq                int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		exams:              map[string]*models.Exam{},
		subjects:           map[string]*models.ExamSubject{},
		results:            map[string]*models.ExamResult{},
		classSubjects:      map[string]*models.ClassSubject{},
		components:         map[string][]models.SubjectComponent{},
		classes:            map[string]*models.Class{},
		subjectEnrollments: map[string]map[string]struct{}{},
		assignments:        map[string]struct{}{},
		cards:              map[string]*models.ReportCard{},
	}
}

var _ repository.Datastore = (*fakeStore)(nil)

func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeStore) InTx(ctx context.Context, fn func(ds repository.Datastore) error) error {
	return fn(f)
}

func (f *fakeStore) CreateExam(ctx context.Context, exam *models.Exam) error {
	if exam.ID == "" {
		exam.ID = f.nextID("exam")
	}
	exam.CreatedAt = time.Now().UTC()
	exam.UpdatedAt = exam.CreatedAt
	cp := *exam
	f.exams[exam.ID] = &cp
	return nil
}

func (f *fakeStore) FindExam(ctx context.Context, schoolID, id string) (*models.Exam, error) {
	exam, ok := f.exams[id]
	if !ok || exam.SchoolID != schoolID {
		return nil, sql.ErrNoRows
	}
	cp := *exam
	return &cp, nil
}

func (f *fakeStore) ListExams(ctx context.Context, filter models.ExamFilter) ([]models.Exam, error) {
	var out []models.Exam
	for _, exam := range f.exams {
		if filter.SchoolID != "" && exam.SchoolID != filter.SchoolID {
			continue
		}
		if filter.Status != "" && exam.Status != filter.Status {
			continue
		}
		if filter.AcademicYearID != "" && exam.AcademicYearID != filter.AcademicYearID {
			continue
		}
		out = append(out, *exam)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) UpdateExam(ctx context.Context, exam *models.Exam) error {
	stored, ok := f.exams[exam.ID]
	if !ok {
		return sql.ErrNoRows
	}
	cp := *exam
	cp.UpdatedAt = time.Now().UTC()
	*stored = cp
	return nil
}

func (f *fakeStore) UpdateExamStatus(ctx context.Context, id string, status models.ExamStatus, publishedAt *time.Time) error {
	exam, ok := f.exams[id]
	if !ok {
		return sql.ErrNoRows
	}
	exam.Status = status
	if publishedAt != nil {
		exam.PublishedAt = publishedAt
	}
	return nil
}

func (f *fakeStore) DeleteExam(ctx context.Context, id string) error {
	delete(f.exams, id)
	for sid, subject := range f.subjects {
		if subject.ExamID == id {
			delete(f.subjects, sid)
		}
	}
	return nil
}

func (f *fakeStore) UpsertExamSubject(ctx context.Context, subject *models.ExamSubject) error {
	for _, existing := range f.subjects {
		if existing.ExamID == subject.ExamID && existing.ClassSubjectID == subject.ClassSubjectID {
			subject.ID = existing.ID
			cp := *subject
			*existing = cp
			return nil
		}
	}
	if subject.ID == "" {
		subject.ID = f.nextID("es")
	}
	cp := *subject
	f.subjects[subject.ID] = &cp
	return nil
}

func (f *fakeStore) FindExamSubject(ctx context.Context, id string) (*models.ExamSubject, error) {
	subject, ok := f.subjects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *subject
	return &cp, nil
}

func (f *fakeStore) ListExamSubjects(ctx context.Context, examID string) ([]models.ExamSubject, error) {
	var out []models.ExamSubject
	for _, subject := range f.subjects {
		if subject.ExamID == examID {
			out = append(out, *subject)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) CountExamSubjects(ctx context.Context, examID string) (int, error) {
	subjects, _ := f.ListExamSubjects(ctx, examID)
	return len(subjects), nil
}

func (f *fakeStore) DeleteExamSubject(ctx context.Context, id string) error {
	delete(f.subjects, id)
	return nil
}

func resultKey(examSubjectID, studentID string) string {
	return examSubjectID + "|" + studentID
}

func (f *fakeStore) UpsertExamResult(ctx context.Context, result *models.ExamResult) error {
	key := resultKey(result.ExamSubjectID, result.StudentID)
	if existing, ok := f.results[key]; ok {
		result.ID = existing.ID
		result.CreatedAt = existing.CreatedAt
	} else if result.ID == "" {
		result.ID = f.nextID("er")
		result.CreatedAt = time.Now().UTC()
	}
	result.UpdatedAt = time.Now().UTC()
	cp := *result
	f.results[key] = &cp
	return nil
}

func (f *fakeStore) ListResultsByExamSubject(ctx context.Context, examSubjectID string) ([]models.ExamResult, error) {
	var out []models.ExamResult
	for _, result := range f.results {
		if result.ExamSubjectID == examSubjectID {
			out = append(out, *result)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

func (f *fakeStore) CountResultsByExam(ctx context.Context, examID string) (int, error) {
	count := 0
	for _, result := range f.results {
		subject, ok := f.subjects[result.ExamSubjectID]
		if ok && subject.ExamID == examID {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) CountResultsByExamSubject(ctx context.Context, examSubjectID string) (int, error) {
	count := 0
	for _, result := range f.results {
		if result.ExamSubjectID == examSubjectID {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) ResultRowsByExamForStudents(ctx context.Context, examID string, studentIDs []string) (map[string][]models.ExamResultRow, error) {
	wanted := make(map[string]struct{}, len(studentIDs))
	for _, id := range studentIDs {
		wanted[id] = struct{}{}
	}
	out := make(map[string][]models.ExamResultRow)
	for _, result := range f.results {
		subject, ok := f.subjects[result.ExamSubjectID]
		if !ok || subject.ExamID != examID {
			continue
		}
		if _, ok := wanted[result.StudentID]; !ok {
			continue
		}
		row := models.ExamResultRow{
			ExamResult:         *result,
			ClassSubjectID:     subject.ClassSubjectID,
			ClassID:            subject.ClassID,
			HasTheory:          subject.HasTheory,
			HasPractical:       subject.HasPractical,
			TheoryFullMarks:    subject.TheoryFullMarks,
			PracticalFullMarks: subject.PracticalFullMarks,
			FullMarks:          subject.FullMarks,
			PassMarks:          subject.PassMarks,
		}
		if cs, ok := f.classSubjects[subject.ClassSubjectID]; ok {
			row.SubjectName = cs.SubjectName
			row.CreditHours = cs.CreditHours
		}
		out[result.StudentID] = append(out[result.StudentID], row)
	}
	for _, rows := range out {
		sort.Slice(rows, func(i, j int) bool { return rows[i].ExamSubjectID < rows[j].ExamSubjectID })
	}
	return out, nil
}

func (f *fakeStore) FindClassSubject(ctx context.Context, schoolID, id string) (*models.ClassSubject, error) {
	cs, ok := f.classSubjects[id]
	if !ok || cs.SchoolID != schoolID {
		return nil, sql.ErrNoRows
	}
	cp := *cs
	return &cp, nil
}

func (f *fakeStore) ListClassSubjectsByClasses(ctx context.Context, schoolID, academicYearID string, classIDs []string) ([]models.ClassSubject, error) {
	wanted := make(map[string]struct{}, len(classIDs))
	for _, id := range classIDs {
		wanted[id] = struct{}{}
	}
	var out []models.ClassSubject
	for _, cs := range f.classSubjects {
		if cs.SchoolID != schoolID || cs.AcademicYearID != academicYearID {
			continue
		}
		if _, ok := wanted[cs.ClassID]; !ok {
			continue
		}
		out = append(out, *cs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) LockClassSubjects(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if cs, ok := f.classSubjects[id]; ok {
			cs.Locked = true
		}
	}
	return nil
}

func (f *fakeStore) ListSubjectComponents(ctx context.Context, classSubjectIDs []string) (map[string][]models.SubjectComponent, error) {
	out := make(map[string][]models.SubjectComponent)
	for _, id := range classSubjectIDs {
		if components, ok := f.components[id]; ok {
			out[id] = components
		}
	}
	return out, nil
}

func (f *fakeStore) FindClass(ctx context.Context, schoolID, id string) (*models.Class, error) {
	class, ok := f.classes[id]
	if !ok || class.SchoolID != schoolID {
		return nil, sql.ErrNoRows
	}
	cp := *class
	return &cp, nil
}

func (f *fakeStore) ListActiveEnrollments(ctx context.Context, classID, sectionID, academicYearID string) ([]models.StudentEnrollment, error) {
	var out []models.StudentEnrollment
	for _, e := range f.enrollments {
		if e.ClassID != classID || e.SectionID != sectionID || e.AcademicYearID != academicYearID {
			continue
		}
		if e.Status != models.EnrollmentStatusActive {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RollNumber < out[j].RollNumber })
	return out, nil
}

func (f *fakeStore) SubjectEnrolledStudents(ctx context.Context, classSubjectID string, studentIDs []string) (map[string]struct{}, error) {
	enrolled := f.subjectEnrollments[classSubjectID]
	out := make(map[string]struct{})
	for _, id := range studentIDs {
		if _, ok := enrolled[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

func assignmentKey(teacherID, classSubjectID, sectionID string) string {
	return teacherID + "|" + classSubjectID + "|" + sectionID
}

func (f *fakeStore) TeacherAssignmentExists(ctx context.Context, teacherID, classSubjectID, sectionID string) (bool, error) {
	_, ok := f.assignments[assignmentKey(teacherID, classSubjectID, sectionID)]
	return ok, nil
}

func cardKey(examID, studentID string) string {
	return examID + "|" + studentID
}

func (f *fakeStore) UpsertReportCard(ctx context.Context, card *models.ReportCard) error {
	key := cardKey(card.ExamID, card.StudentID)
	if existing, ok := f.cards[key]; ok {
		card.ID = existing.ID
		// Rank and published survive regeneration until their own steps run.
		card.Rank = existing.Rank
		card.Published = existing.Published
	} else if card.ID == "" {
		card.ID = f.nextID("rc")
	}
	cp := *card
	f.cards[key] = &cp
	return nil
}

func (f *fakeStore) ListReportCards(ctx context.Context, examID, classID, sectionID string) ([]models.ReportCard, error) {
	var out []models.ReportCard
	for _, card := range f.cards {
		if card.ExamID != examID || card.ClassID != classID || card.SectionID != sectionID {
			continue
		}
		out = append(out, *card)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Percentage != out[j].Percentage {
			return out[i].Percentage > out[j].Percentage
		}
		if out[i].TotalObtained != out[j].TotalObtained {
			return out[i].TotalObtained > out[j].TotalObtained
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out, nil
}

func (f *fakeStore) UpdateReportCardRank(ctx context.Context, id string, rank int) error {
	for _, card := range f.cards {
		if card.ID == id {
			r := rank
			card.Rank = &r
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeStore) SetReportCardsPublished(ctx context.Context, examID, classID, sectionID string, published bool) error {
	for _, card := range f.cards {
		if card.ExamID == examID && card.ClassID == classID && card.SectionID == sectionID {
			card.Published = published
		}
	}
	return nil
}

func (f *fakeStore) FindReportCard(ctx context.Context, examID, studentID string) (*models.ReportCard, error) {
	card, ok := f.cards[cardKey(examID, studentID)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *card
	return &cp, nil
}
