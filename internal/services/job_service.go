package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/models"
)

const (
	msgJobNotFound       = "Job not found"
	msgSkillGateFailed   = "არ აკმაყოფილებთ ყველა საჭირო უნარის მოთხოვნას"
	duplicateTitleSuffix = " (ასლი)"
)

var jobSchema = FieldSchema{
	"title":          {Kind: KindString},
	"company":        {Kind: KindString},
	"location":       {Kind: KindString, Nullable: true},
	"type":           {Kind: KindString, Nullable: true},
	"salary":         {Kind: KindString, Nullable: true},
	"category":       {Kind: KindString, Nullable: true},
	"open_positions": {Kind: KindInt, Nullable: true},
	"description":    {Kind: KindString, Nullable: true},
	"requirements":   {Kind: KindString, Nullable: true},
	"contact_email":  {Kind: KindString, Nullable: true},
	"contact_phone":  {Kind: KindString, Nullable: true},
	"apply_url":      {Kind: KindString, Nullable: true},
	"coins_required": {Kind: KindInt},
	"is_active":      {Kind: KindBool},
}

type JobInput struct {
	Title             string          `json:"title"`
	Company           string          `json:"company"`
	Location          *string         `json:"location"`
	Type              *string         `json:"type"`
	Salary            *string         `json:"salary"`
	Category          *string         `json:"category"`
	OpenPositions     *int            `json:"open_positions"`
	Description       *string         `json:"description"`
	Requirements      *string         `json:"requirements"`
	ContactEmail      *string         `json:"contact_email"`
	ContactPhone      *string         `json:"contact_phone"`
	ApplyURL          *string         `json:"apply_url"`
	CoinsRequired     int             `json:"coins_required"`
	CourseIDs         []string        `json:"course_ids"`
	SkillRequirements []JobSkillInput `json:"skill_requirements"`
}

// JobApplicationStatus is what a student sees about their own application.
type JobApplicationStatus struct {
	Applied       bool                   `json:"applied"`
	Application   *models.JobApplication `json:"application"`
	StudentSkills []models.StudentSkill  `json:"studentSkills"`
}

type JobService struct {
	db *gorm.DB
}

func NewJobService(db *gorm.DB) *JobService {
	return &JobService{db: db}
}

func (s *JobService) withRelations(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Courses", coursesByName).
		Preload("SkillRequirements.Skill")
}

// List returns active jobs, newest first. includeInactive is for admins.
func (s *JobService) List(ctx context.Context, includeInactive bool) ([]models.Job, error) {
	q := s.withRelations(ctx).Order("created_at DESC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	jobs := []models.Job{}
	if err := q.Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// Get hides inactive jobs unless includeInactive is set.
func (s *JobService) Get(ctx context.Context, rawID string, includeInactive bool) (*models.Job, error) {
	id, err := parseID(rawID, msgJobNotFound)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, id, includeInactive)
}

func (s *JobService) load(ctx context.Context, id uuid.UUID, includeInactive bool) (*models.Job, error) {
	var job models.Job
	found, err := takeOne(s.withRelations(ctx).Where("id = ?", id), &job)
	if err != nil {
		return nil, fmt.Errorf("load job: %w", err)
	}
	if !found || (!job.IsActive && !includeInactive) {
		return nil, notFound(msgJobNotFound)
	}
	return &job, nil
}

func (s *JobService) Create(ctx context.Context, in JobInput) (*models.Job, error) {
	title := strings.TrimSpace(in.Title)
	company := strings.TrimSpace(in.Company)
	if title == "" || company == "" {
		return nil, invalid("Title and company are required")
	}
	courseIDs, err := parseIDList("course_ids", in.CourseIDs)
	if err != nil {
		return nil, err
	}
	skills, err := jobSkillLevels(in.SkillRequirements)
	if err != nil {
		return nil, err
	}

	job := &models.Job{
		Title:         title,
		Company:       company,
		Location:      optionalString(in.Location),
		Type:          optionalString(in.Type),
		Salary:        optionalString(in.Salary),
		Category:      optionalString(in.Category),
		OpenPositions: in.OpenPositions,
		Description:   optionalString(in.Description),
		Requirements:  optionalString(in.Requirements),
		ContactEmail:  optionalString(in.ContactEmail),
		ContactPhone:  optionalString(in.ContactPhone),
		ApplyURL:      optionalString(in.ApplyURL),
		CoinsRequired: in.CoinsRequired,
		IsActive:      true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Courses", "SkillRequirements").Create(job).Error; err != nil {
			return err
		}
		if err := replaceJobCourses(tx, job.ID, courseIDs); err != nil {
			return err
		}
		return replaceJobSkills(tx, job.ID, skills)
	})
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return s.load(ctx, job.ID, true)
}

// Update writes the whitelisted fields of raw. course_ids and
// skill_requirements replace the relations when present.
func (s *JobService) Update(ctx context.Context, rawID string, raw map[string]any) (*models.Job, error) {
	id, err := parseID(rawID, msgJobNotFound)
	if err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, id, true); err != nil {
		return nil, err
	}

	var courseIDsRaw []string
	hasCourses, err := takeRelation(raw, "course_ids", &courseIDsRaw)
	if err != nil {
		return nil, err
	}
	courseIDs, err := parseIDList("course_ids", courseIDsRaw)
	if err != nil {
		return nil, err
	}
	var skillsRaw []JobSkillInput
	hasSkills, err := takeRelation(raw, "skill_requirements", &skillsRaw)
	if err != nil {
		return nil, err
	}
	skills, err := jobSkillLevels(skillsRaw)
	if err != nil {
		return nil, err
	}
	fields, err := ApplyUpdate(jobSchema, raw)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(fields) > 0 {
			if err := tx.Model(&models.Job{}).Where("id = ?", id).Updates(fields).Error; err != nil {
				return err
			}
		}
		if hasCourses {
			if err := replaceJobCourses(tx, id, courseIDs); err != nil {
				return err
			}
		}
		if hasSkills {
			return replaceJobSkills(tx, id, skills)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update job: %w", err)
	}
	return s.load(ctx, id, true)
}

// Deactivate is the job delete: the row stays, hidden from students.
func (s *JobService) Deactivate(ctx context.Context, rawID string) error {
	id, err := parseID(rawID, msgJobNotFound)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&models.Job{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return fmt.Errorf("deactivate job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(msgJobNotFound)
	}
	return nil
}

// Duplicate copies a job and its relations as an inactive draft.
func (s *JobService) Duplicate(ctx context.Context, rawID string) (*models.Job, error) {
	id, err := parseID(rawID, msgJobNotFound)
	if err != nil {
		return nil, err
	}
	orig, err := s.load(ctx, id, true)
	if err != nil {
		return nil, err
	}

	copied := *orig
	copied.ID = uuid.Nil
	copied.Title = orig.Title + duplicateTitleSuffix
	copied.IsActive = false
	copied.Courses = nil
	copied.SkillRequirements = nil
	copied.CreatedAt = time.Time{}
	copied.UpdatedAt = time.Time{}

	courseIDs := make([]uuid.UUID, 0, len(orig.Courses))
	for _, c := range orig.Courses {
		courseIDs = append(courseIDs, c.ID)
	}
	skills := make([]skillLevel, 0, len(orig.SkillRequirements))
	for _, r := range orig.SkillRequirements {
		skills = append(skills, skillLevel{SkillID: r.SkillID, Level: r.RequiredLevel})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Courses", "SkillRequirements").Create(&copied).Error; err != nil {
			return err
		}
		if err := replaceJobCourses(tx, copied.ID, courseIDs); err != nil {
			return err
		}
		return replaceJobSkills(tx, copied.ID, skills)
	})
	if err != nil {
		return nil, fmt.Errorf("duplicate job: %w", err)
	}
	return s.load(ctx, copied.ID, true)
}

// Apply records a student's application after the active, duplicate and
// skill checks.
func (s *JobService) Apply(ctx context.Context, studentID uuid.UUID, rawJobID string) (*models.JobApplication, error) {
	jobID, err := parseID(rawJobID, msgJobNotFound)
	if err != nil {
		return nil, err
	}
	var job models.Job
	found, err := takeOne(s.db.WithContext(ctx).Preload("SkillRequirements").Where("id = ?", jobID), &job)
	if err != nil {
		return nil, fmt.Errorf("load job: %w", err)
	}
	if !found {
		return nil, notFound(msgJobNotFound)
	}
	if !job.IsActive {
		return nil, invalid("This job is no longer active")
	}

	var existing models.JobApplication
	applied, err := takeOne(s.db.WithContext(ctx).
		Where("student_id = ? AND job_id = ?", studentID, jobID), &existing)
	if err != nil {
		return nil, fmt.Errorf("check application: %w", err)
	}
	if applied {
		return nil, invalid("You have already applied to this job")
	}

	if len(job.SkillRequirements) > 0 {
		levels, _, err := studentSkillLevels(ctx, s.db, studentID)
		if err != nil {
			return nil, err
		}
		if !MeetsRequirements(job.SkillRequirements, levels) {
			return nil, invalid(msgSkillGateFailed)
		}
	}

	app := &models.JobApplication{JobID: jobID, StudentID: studentID}
	if err := s.db.WithContext(ctx).Create(app).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, invalid("You have already applied to this job")
		}
		return nil, fmt.Errorf("create application: %w", err)
	}
	return app, nil
}

func (s *JobService) ApplicationStatus(ctx context.Context, studentID uuid.UUID, rawJobID string) (*JobApplicationStatus, error) {
	status := &JobApplicationStatus{StudentSkills: []models.StudentSkill{}}
	jobID, err := uuid.Parse(rawJobID)
	if err != nil {
		return status, nil
	}
	var app models.JobApplication
	found, err := takeOne(s.db.WithContext(ctx).
		Where("student_id = ? AND job_id = ?", studentID, jobID), &app)
	if err != nil {
		return nil, fmt.Errorf("load application: %w", err)
	}
	if found {
		status.Applied = true
		status.Application = &app
	}
	_, skills, err := studentSkillLevels(ctx, s.db, studentID)
	if err != nil {
		return nil, err
	}
	status.StudentSkills = skills
	return status, nil
}

// MeetsRequirements reports whether every required skill is held at or above
// its level. A missing skill counts as level zero.
func MeetsRequirements(reqs []models.JobSkillRequirement, levels map[uuid.UUID]int) bool {
	for _, r := range reqs {
		if levels[r.SkillID] < r.RequiredLevel {
			return false
		}
	}
	return true
}

func studentSkillLevels(ctx context.Context, db *gorm.DB, studentID uuid.UUID) (map[uuid.UUID]int, []models.StudentSkill, error) {
	skills := []models.StudentSkill{}
	if err := db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("proficiency_level DESC").
		Find(&skills).Error; err != nil {
		return nil, nil, fmt.Errorf("load student skills: %w", err)
	}
	levels := make(map[uuid.UUID]int, len(skills))
	for _, sk := range skills {
		levels[sk.SkillID] = sk.ProficiencyLevel
	}
	return levels, skills, nil
}

func replaceJobCourses(tx *gorm.DB, jobID uuid.UUID, courseIDs []uuid.UUID) error {
	if err := tx.Where("job_id = ?", jobID).Delete(&models.JobCourse{}).Error; err != nil {
		return err
	}
	if len(courseIDs) == 0 {
		return nil
	}
	rows := make([]models.JobCourse, 0, len(courseIDs))
	for _, id := range courseIDs {
		rows = append(rows, models.JobCourse{JobID: jobID, CourseID: id})
	}
	return tx.Create(&rows).Error
}

func replaceJobSkills(tx *gorm.DB, jobID uuid.UUID, skills []skillLevel) error {
	if err := tx.Where("job_id = ?", jobID).Delete(&models.JobSkillRequirement{}).Error; err != nil {
		return err
	}
	if len(skills) == 0 {
		return nil
	}
	rows := make([]models.JobSkillRequirement, 0, len(skills))
	for _, sk := range skills {
		rows = append(rows, models.JobSkillRequirement{JobID: jobID, SkillID: sk.SkillID, RequiredLevel: sk.Level})
	}
	return tx.Create(&rows).Error
}
