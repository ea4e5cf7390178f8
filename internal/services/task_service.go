package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/models"
)

const (
	msgTaskNotFound        = "Task not found"
	msgApplicationNotFound = "Application not found"
)

var taskSchema = FieldSchema{
	"title":        {Kind: KindString},
	"description":  {Kind: KindString, Nullable: true},
	"deadline":     {Kind: KindTime, Nullable: true},
	"coins_reward": {Kind: KindInt},
	"is_active":    {Kind: KindBool},
}

type TaskInput struct {
	Title        string            `json:"title"`
	Description  *string           `json:"description"`
	Deadline     *string           `json:"deadline"`
	CoinsReward  int               `json:"coins_reward"`
	CourseIDs    []string          `json:"course_ids"`
	SkillRewards []TaskRewardInput `json:"skill_rewards"`
}

type TaskApplicationStatus struct {
	Applied     bool                    `json:"applied"`
	Application *models.TaskApplication `json:"application"`
}

type TaskService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewTaskService(db *gorm.DB) *TaskService {
	return &TaskService{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *TaskService) withRelations(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Courses", coursesByName).
		Preload("SkillRewards.Skill")
}

// List orders by deadline with open-ended tasks last.
func (s *TaskService) List(ctx context.Context, includeInactive bool) ([]models.Task, error) {
	q := s.withRelations(ctx).Order("deadline ASC NULLS LAST")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	tasks := []models.Task{}
	if err := q.Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, rawID string, includeInactive bool) (*models.Task, error) {
	id, err := parseID(rawID, msgTaskNotFound)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, id, includeInactive)
}

func (s *TaskService) load(ctx context.Context, id uuid.UUID, includeInactive bool) (*models.Task, error) {
	var task models.Task
	found, err := takeOne(s.withRelations(ctx).Where("id = ?", id), &task)
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}
	if !found || (!task.IsActive && !includeInactive) {
		return nil, notFound(msgTaskNotFound)
	}
	return &task, nil
}

func (s *TaskService) Create(ctx context.Context, in TaskInput) (*models.Task, error) {
	title, err := requireString(in.Title, "Title is required")
	if err != nil {
		return nil, err
	}
	var deadline *time.Time
	if in.Deadline != nil && strings.TrimSpace(*in.Deadline) != "" {
		t, err := parseTimestamp(strings.TrimSpace(*in.Deadline))
		if err != nil {
			return nil, invalid("Invalid value for deadline: expected timestamp")
		}
		deadline = &t
	}
	courseIDs, err := parseIDList("course_ids", in.CourseIDs)
	if err != nil {
		return nil, err
	}
	rewards, err := taskSkillLevels(in.SkillRewards)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:       title,
		Description: optionalString(in.Description),
		Deadline:    deadline,
		CoinsReward: in.CoinsReward,
		IsActive:    true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Courses", "SkillRewards").Create(task).Error; err != nil {
			return err
		}
		if err := replaceTaskCourses(tx, task.ID, courseIDs); err != nil {
			return err
		}
		return replaceTaskRewards(tx, task.ID, rewards)
	})
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return s.load(ctx, task.ID, true)
}

func (s *TaskService) Update(ctx context.Context, rawID string, raw map[string]any) (*models.Task, error) {
	id, err := parseID(rawID, msgTaskNotFound)
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
	var rewardsRaw []TaskRewardInput
	hasRewards, err := takeRelation(raw, "skill_rewards", &rewardsRaw)
	if err != nil {
		return nil, err
	}
	rewards, err := taskSkillLevels(rewardsRaw)
	if err != nil {
		return nil, err
	}
	fields, err := ApplyUpdate(taskSchema, raw)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(fields) > 0 {
			if err := tx.Model(&models.Task{}).Where("id = ?", id).Updates(fields).Error; err != nil {
				return err
			}
		}
		if hasCourses {
			if err := replaceTaskCourses(tx, id, courseIDs); err != nil {
				return err
			}
		}
		if hasRewards {
			return replaceTaskRewards(tx, id, rewards)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.load(ctx, id, true)
}

// Delete removes the task; relations and applications cascade.
func (s *TaskService) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID, msgTaskNotFound)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Task{})
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(msgTaskNotFound)
	}
	return nil
}

// Duplicate copies a task as an inactive draft without a deadline.
func (s *TaskService) Duplicate(ctx context.Context, rawID string) (*models.Task, error) {
	id, err := parseID(rawID, msgTaskNotFound)
	if err != nil {
		return nil, err
	}
	orig, err := s.load(ctx, id, true)
	if err != nil {
		return nil, err
	}

	copied := &models.Task{
		Title:       orig.Title + duplicateTitleSuffix,
		Description: orig.Description,
		CoinsReward: orig.CoinsReward,
		IsActive:    false,
	}
	courseIDs := make([]uuid.UUID, 0, len(orig.Courses))
	for _, c := range orig.Courses {
		courseIDs = append(courseIDs, c.ID)
	}
	rewards := make([]skillLevel, 0, len(orig.SkillRewards))
	for _, r := range orig.SkillRewards {
		rewards = append(rewards, skillLevel{SkillID: r.SkillID, Level: r.LevelReward})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Courses", "SkillRewards").Create(copied).Error; err != nil {
			return err
		}
		if err := replaceTaskCourses(tx, copied.ID, courseIDs); err != nil {
			return err
		}
		return replaceTaskRewards(tx, copied.ID, rewards)
	})
	if err != nil {
		return nil, fmt.Errorf("duplicate task: %w", err)
	}
	return s.load(ctx, copied.ID, true)
}

// Apply starts a student's participation with status in_progress.
func (s *TaskService) Apply(ctx context.Context, studentID uuid.UUID, rawTaskID string) (*models.TaskApplication, error) {
	taskID, err := parseID(rawTaskID, msgTaskNotFound)
	if err != nil {
		return nil, err
	}
	var task models.Task
	found, err := takeOne(s.db.WithContext(ctx).Where("id = ?", taskID), &task)
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}
	if !found {
		return nil, notFound(msgTaskNotFound)
	}
	if !task.IsActive {
		return nil, invalid("This task is no longer active")
	}
	if task.DeadlinePassed(s.now()) {
		return nil, invalid("The deadline for this task has passed")
	}

	existing, err := s.ownApplication(ctx, studentID, taskID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, invalid("You have already applied to this task")
	}

	app := &models.TaskApplication{TaskID: taskID, StudentID: studentID, Status: models.TaskInProgress}
	if err := s.db.WithContext(ctx).Omit("Student", "Task").Create(app).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, invalid("You have already applied to this task")
		}
		return nil, fmt.Errorf("create task application: %w", err)
	}
	return app, nil
}

func (s *TaskService) GetApplication(ctx context.Context, studentID uuid.UUID, rawTaskID string) (*TaskApplicationStatus, error) {
	taskID, err := uuid.Parse(rawTaskID)
	if err != nil {
		return &TaskApplicationStatus{}, nil
	}
	app, err := s.ownApplication(ctx, studentID, taskID)
	if err != nil {
		return nil, err
	}
	return &TaskApplicationStatus{Applied: app != nil, Application: app}, nil
}

// UpdateApplication lets a student move their own application between
// in_progress, paused and done. Reviewed applications are frozen.
func (s *TaskService) UpdateApplication(ctx context.Context, studentID uuid.UUID, rawTaskID, status string, submission *string) (*models.TaskApplication, error) {
	next := models.TaskStatus(status)
	switch next {
	case models.TaskInProgress, models.TaskPaused, models.TaskDone:
	default:
		return nil, invalid("Invalid status")
	}
	sub := optionalString(submission)
	if next == models.TaskDone && sub == nil {
		return nil, invalid("Submission is required when marking task as done")
	}

	taskID, err := parseID(rawTaskID, msgApplicationNotFound)
	if err != nil {
		return nil, err
	}
	app, err := s.ownApplication(ctx, studentID, taskID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, notFound(msgApplicationNotFound)
	}
	if app.Status.Reviewed() {
		return nil, invalid("Cannot update approved or rejected application")
	}

	fields := map[string]any{"status": string(next)}
	if sub != nil {
		fields["submission"] = *sub
	}
	res := s.db.WithContext(ctx).Model(&models.TaskApplication{}).
		Where("id = ? AND status NOT IN ?", app.ID, []string{string(models.TaskApproved), string(models.TaskRejected)}).
		Updates(fields)
	if res.Error != nil {
		return nil, fmt.Errorf("update task application: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, invalid("Cannot update approved or rejected application")
	}
	return s.ownApplication(ctx, studentID, taskID)
}

// CancelApplication deletes the student's application unless it was approved.
func (s *TaskService) CancelApplication(ctx context.Context, studentID uuid.UUID, rawTaskID string) error {
	taskID, err := parseID(rawTaskID, msgApplicationNotFound)
	if err != nil {
		return err
	}
	app, err := s.ownApplication(ctx, studentID, taskID)
	if err != nil {
		return err
	}
	if app == nil {
		return notFound(msgApplicationNotFound)
	}
	if app.Status == models.TaskApproved {
		return invalid("Cannot cancel approved application")
	}
	res := s.db.WithContext(ctx).
		Where("id = ? AND status <> ?", app.ID, string(models.TaskApproved)).
		Delete(&models.TaskApplication{})
	if res.Error != nil {
		return fmt.Errorf("cancel task application: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return invalid("Cannot cancel approved application")
	}
	return nil
}

func (s *TaskService) ownApplication(ctx context.Context, studentID, taskID uuid.UUID) (*models.TaskApplication, error) {
	var app models.TaskApplication
	found, err := takeOne(s.db.WithContext(ctx).
		Where("student_id = ? AND task_id = ?", studentID, taskID), &app)
	if err != nil {
		return nil, fmt.Errorf("load task application: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &app, nil
}

// ListApplications is the admin review queue, most recently touched first.
func (s *TaskService) ListApplications(ctx context.Context, status string) ([]models.TaskApplication, error) {
	q := s.db.WithContext(ctx).
		Preload("Student", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "phone", "email", "group_name")
		}).
		Preload("Task.SkillRewards.Skill").
		Order("updated_at DESC")
	if status = strings.TrimSpace(status); status != "" {
		q = q.Where("status = ?", status)
	}
	apps := []models.TaskApplication{}
	if err := q.Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("list task applications: %w", err)
	}
	return apps, nil
}

// ReviewApplication approves or rejects a pending application. Approval adds
// each of the task's level rewards to the student's skills in the same
// transaction, so a crash cannot leave an approved application unrewarded.
func (s *TaskService) ReviewApplication(ctx context.Context, rawAppID, status string) (string, error) {
	next := models.TaskStatus(status)
	if !next.Reviewed() {
		return "", invalid("Invalid status. Use approved or rejected.")
	}
	appID, err := parseID(rawAppID, msgApplicationNotFound)
	if err != nil {
		return "", err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var app models.TaskApplication
		found, err := takeOne(tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", appID), &app)
		if err != nil {
			return err
		}
		if !found {
			return notFound(msgApplicationNotFound)
		}
		if app.Status.Reviewed() {
			return invalid("Application has already been processed")
		}
		if err := tx.Model(&models.TaskApplication{}).Where("id = ?", app.ID).Update("status", string(next)).Error; err != nil {
			return err
		}
		if next != models.TaskApproved {
			return nil
		}

		var rewards []models.TaskSkillReward
		if err := tx.Where("task_id = ?", app.TaskID).Find(&rewards).Error; err != nil {
			return err
		}
		for _, r := range rewards {
			row := models.StudentSkill{StudentID: app.StudentID, SkillID: r.SkillID, ProficiencyLevel: r.LevelReward}
			err := tx.Omit("Skill").Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "student_id"}, {Name: "skill_id"}},
				DoUpdates: clause.Assignments(map[string]any{
					"proficiency_level": gorm.Expr("student_skills.proficiency_level + EXCLUDED.proficiency_level"),
					"updated_at":        s.now(),
				}),
			}).Create(&row).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isClientError(err) {
			return "", err
		}
		return "", fmt.Errorf("review task application: %w", err)
	}
	if next == models.TaskApproved {
		return "Application approved and skills awarded", nil
	}
	return "Application rejected", nil
}

func replaceTaskCourses(tx *gorm.DB, taskID uuid.UUID, courseIDs []uuid.UUID) error {
	if err := tx.Where("task_id = ?", taskID).Delete(&models.TaskCourse{}).Error; err != nil {
		return err
	}
	if len(courseIDs) == 0 {
		return nil
	}
	rows := make([]models.TaskCourse, 0, len(courseIDs))
	for _, id := range courseIDs {
		rows = append(rows, models.TaskCourse{TaskID: taskID, CourseID: id})
	}
	return tx.Create(&rows).Error
}

func replaceTaskRewards(tx *gorm.DB, taskID uuid.UUID, rewards []skillLevel) error {
	if err := tx.Where("task_id = ?", taskID).Delete(&models.TaskSkillReward{}).Error; err != nil {
		return err
	}
	if len(rewards) == 0 {
		return nil
	}
	rows := make([]models.TaskSkillReward, 0, len(rewards))
	for _, r := range rewards {
		rows = append(rows, models.TaskSkillReward{TaskID: taskID, SkillID: r.SkillID, LevelReward: r.Level})
	}
	return tx.Create(&rows).Error
}
