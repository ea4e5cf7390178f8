package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/models"
)

type DashboardJob struct {
	models.Job
	MeetsRequirements bool `json:"meets_requirements"`
	Applied           bool `json:"applied"`
}

type DashboardTask struct {
	models.Task
	Application *models.TaskApplication `json:"application"`
}

type Dashboard struct {
	Student            *models.Student            `json:"student"`
	Courses            []models.Course            `json:"courses"`
	Skills             []models.StudentSkill      `json:"skills"`
	CertificateRequest *models.CertificateRequest `json:"certificate_request"`
	Jobs               []DashboardJob             `json:"jobs"`
	Tasks              []DashboardTask            `json:"tasks"`
}

// DashboardService assembles the student home page in one call.
type DashboardService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Get returns what studentID may see: active jobs and open tasks that have no
// course restriction or share a course with the student.
func (s *DashboardService) Get(ctx context.Context, studentID uuid.UUID) (*Dashboard, error) {
	db := s.db.WithContext(ctx)

	var student models.Student
	found, err := takeOne(db.Preload("Courses", coursesByName).Where("id = ?", studentID), &student)
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}
	if !found {
		return nil, ErrStudentNotFound
	}
	courses := student.Courses
	if courses == nil {
		courses = []models.Course{}
	}
	student.Courses = nil
	enrolled := make(map[uuid.UUID]struct{}, len(courses))
	for _, c := range courses {
		enrolled[c.ID] = struct{}{}
	}

	skills := []models.StudentSkill{}
	if err := db.Preload("Skill").
		Where("student_id = ?", studentID).
		Order("proficiency_level DESC").
		Find(&skills).Error; err != nil {
		return nil, fmt.Errorf("load student skills: %w", err)
	}
	levels := make(map[uuid.UUID]int, len(skills))
	for _, sk := range skills {
		levels[sk.SkillID] = sk.ProficiencyLevel
	}

	var cert models.CertificateRequest
	hasCert, err := takeOne(db.Where("student_id = ?", studentID).Order("created_at DESC"), &cert)
	if err != nil {
		return nil, fmt.Errorf("load certificate request: %w", err)
	}

	jobs, err := s.jobs(ctx, studentID, enrolled, levels)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks(ctx, studentID, enrolled)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		Student: &student,
		Courses: courses,
		Skills:  skills,
		Jobs:    jobs,
		Tasks:   tasks,
	}
	if hasCert {
		d.CertificateRequest = &cert
	}
	return d, nil
}

func (s *DashboardService) jobs(ctx context.Context, studentID uuid.UUID, enrolled map[uuid.UUID]struct{}, levels map[uuid.UUID]int) ([]DashboardJob, error) {
	db := s.db.WithContext(ctx)
	var all []models.Job
	if err := db.Preload("Courses", coursesByName).
		Preload("SkillRequirements.Skill").
		Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&all).Error; err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	var appliedIDs []uuid.UUID
	if err := db.Model(&models.JobApplication{}).
		Where("student_id = ?", studentID).
		Pluck("job_id", &appliedIDs).Error; err != nil {
		return nil, fmt.Errorf("list job applications: %w", err)
	}
	applied := make(map[uuid.UUID]struct{}, len(appliedIDs))
	for _, id := range appliedIDs {
		applied[id] = struct{}{}
	}

	out := []DashboardJob{}
	for _, job := range all {
		if !visibleTo(job.Courses, enrolled) {
			continue
		}
		_, ok := applied[job.ID]
		out = append(out, DashboardJob{
			Job:               job,
			MeetsRequirements: MeetsRequirements(job.SkillRequirements, levels),
			Applied:           ok,
		})
	}
	return out, nil
}

func (s *DashboardService) tasks(ctx context.Context, studentID uuid.UUID, enrolled map[uuid.UUID]struct{}) ([]DashboardTask, error) {
	db := s.db.WithContext(ctx)
	var all []models.Task
	if err := db.Preload("Courses", coursesByName).
		Preload("SkillRewards.Skill").
		Where("is_active = ?", true).
		Where("deadline IS NULL OR deadline > ?", s.now()).
		Order("deadline ASC NULLS LAST").
		Find(&all).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	var apps []models.TaskApplication
	if err := db.Where("student_id = ?", studentID).Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("list task applications: %w", err)
	}
	byTask := make(map[uuid.UUID]*models.TaskApplication, len(apps))
	for i := range apps {
		byTask[apps[i].TaskID] = &apps[i]
	}

	out := []DashboardTask{}
	for _, task := range all {
		if !visibleTo(task.Courses, enrolled) {
			continue
		}
		out = append(out, DashboardTask{Task: task, Application: byTask[task.ID]})
	}
	return out, nil
}

func visibleTo(courses []models.Course, enrolled map[uuid.UUID]struct{}) bool {
	if len(courses) == 0 {
		return true
	}
	for _, c := range courses {
		if _, ok := enrolled[c.ID]; ok {
			return true
		}
	}
	return false
}
