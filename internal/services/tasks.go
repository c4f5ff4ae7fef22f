package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"task-weather/backend/internal/models"

	"gorm.io/gorm"
)

// Largest magnitude at which every integer has an exact float64 form.
const maxExactFloatInt = 1 << 53

var (
	ErrTaskConflict = errors.New("a task with this id already exists")
	ErrIntegrity    = errors.New("task violates a database constraint")
)

// ValidationError reports a request payload the task store refuses to accept.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

const invalidCompletedMessage = "Invalid value for 'completed'. Must be true or false."

type TaskService interface {
	ListTasks(db *gorm.DB, ownerID int64) ([]models.Task, error)
	GetTask(db *gorm.DB, ownerID, id int64) (models.Task, error)
	CreateTask(db *gorm.DB, ownerID int64, fields map[string]interface{}) (models.Task, error)
	UpdateTask(db *gorm.DB, ownerID, id int64, patch map[string]interface{}) (models.Task, error)
	DeleteTask(db *gorm.DB, ownerID, id int64) error
}

type TaskServiceImpl struct{}

func NewTaskService() *TaskServiceImpl {
	return &TaskServiceImpl{}
}

func ownedBy(db *gorm.DB, ownerID, id int64) *gorm.DB {
	return db.Where("owner_id = ? AND id = ?", ownerID, id)
}

func (s *TaskServiceImpl) ListTasks(db *gorm.DB, ownerID int64) ([]models.Task, error) {
	tasks := []models.Task{}
	if err := db.Where("owner_id = ?", ownerID).Order("id").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *TaskServiceImpl) GetTask(db *gorm.DB, ownerID, id int64) (models.Task, error) {
	var task models.Task
	err := ownedBy(db, ownerID, id).First(&task).Error
	return task, err
}

// CreateTask inserts a task for ownerID. The id is supplied by the caller and
// must not already be in use by any owner.
func (s *TaskServiceImpl) CreateTask(db *gorm.DB, ownerID int64, fields map[string]interface{}) (models.Task, error) {
	rawID, ok := fields["id"]
	if !ok || rawID == nil {
		return models.Task{}, invalid("Missing required field 'id'.")
	}
	id, err := ParseTaskID(rawID)
	if err != nil {
		return models.Task{}, err
	}

	task := models.Task{ID: id, OwnerID: ownerID}

	if raw, ok := fields["completed"]; ok {
		completed, err := CoerceBool(raw)
		if err != nil {
			return models.Task{}, err
		}
		task.Completed = completed
	}
	if task.Description, err = stringField(fields, "description"); err != nil {
		return models.Task{}, err
	}
	if task.DueDate, err = stringField(fields, "due_date"); err != nil {
		return models.Task{}, err
	}
	if task.Location, err = nullableStringField(fields, "location"); err != nil {
		return models.Task{}, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Task{}).Where("id = ?", id).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrTaskConflict
		}
		return tx.Create(&task).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return models.Task{}, fmt.Errorf("%w: %v", ErrIntegrity, err)
		}
		return models.Task{}, err
	}

	return task, nil
}

// taskPatch holds the validated subset of an update payload.
type taskPatch struct {
	description *string
	completed   *bool
	dueDate     *string
	location    *string
	hasLocation bool
}

func parsePatch(patch map[string]interface{}) (taskPatch, error) {
	var p taskPatch

	if raw, ok := patch["completed"]; ok {
		completed, err := CoerceBool(raw)
		if err != nil {
			return p, invalid(invalidCompletedMessage)
		}
		p.completed = &completed
	}
	if _, ok := patch["description"]; ok {
		v, err := stringField(patch, "description")
		if err != nil {
			return p, err
		}
		p.description = &v
	}
	if _, ok := patch["due_date"]; ok {
		v, err := stringField(patch, "due_date")
		if err != nil {
			return p, err
		}
		p.dueDate = &v
	}
	if _, ok := patch["location"]; ok {
		v, err := nullableStringField(patch, "location")
		if err != nil {
			return p, err
		}
		p.location = v
		p.hasLocation = true
	}

	return p, nil
}

// changes returns the columns of task that p would actually modify.
func (p taskPatch) changes(task models.Task) map[string]interface{} {
	updates := map[string]interface{}{}
	if p.description != nil && *p.description != task.Description {
		updates["description"] = *p.description
	}
	if p.completed != nil && *p.completed != task.Completed {
		updates["completed"] = *p.completed
	}
	if p.dueDate != nil && *p.dueDate != task.DueDate {
		updates["due_date"] = *p.dueDate
	}
	if p.hasLocation && !sameLocation(p.location, task.Location) {
		if p.location == nil {
			updates["location"] = nil
		} else {
			updates["location"] = *p.location
		}
	}
	return updates
}

func (p taskPatch) apply(task *models.Task) {
	if p.description != nil {
		task.Description = *p.description
	}
	if p.completed != nil {
		task.Completed = *p.completed
	}
	if p.dueDate != nil {
		task.DueDate = *p.dueDate
	}
	if p.hasLocation {
		task.Location = p.location
	}
}

func sameLocation(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// UpdateTask applies a partial update. The patch is validated as a whole before
// anything is written, and only fields whose value changes are updated.
func (s *TaskServiceImpl) UpdateTask(db *gorm.DB, ownerID, id int64, patch map[string]interface{}) (models.Task, error) {
	p, err := parsePatch(patch)
	if err != nil {
		return models.Task{}, err
	}

	var task models.Task
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := ownedBy(tx, ownerID, id).First(&task).Error; err != nil {
			return err
		}

		updates := p.changes(task)
		if len(updates) == 0 {
			return nil
		}
		if err := ownedBy(tx.Model(&models.Task{}), ownerID, id).Updates(updates).Error; err != nil {
			return err
		}
		p.apply(&task)
		return nil
	})
	if err != nil {
		return models.Task{}, err
	}

	return task, nil
}

func (s *TaskServiceImpl) DeleteTask(db *gorm.DB, ownerID, id int64) error {
	return db.Transaction(func(tx *gorm.DB) error {
		result := ownedBy(tx, ownerID, id).Delete(&models.Task{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ParseTaskID accepts an integer given as a JSON number or a numeric string.
// Integral numbers written with a fraction or exponent, such as 1.0 or 1e3,
// are accepted.
func ParseTaskID(v interface{}) (int64, error) {
	switch id := v.(type) {
	case json.Number:
		if n, err := id.Int64(); err == nil {
			return n, nil
		}
		if f, err := id.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) <= maxExactFloatInt {
			return int64(f), nil
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, invalid("Invalid value for 'id'. Must be an integer.")
}

func stringField(fields map[string]interface{}, key string) (string, error) {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", invalid("Invalid value for '%s'. Must be a string.", key)
	}
	return s, nil
}

func nullableStringField(fields map[string]interface{}, key string) (*string, error) {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return nil, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, invalid("Invalid value for '%s'. Must be a string or null.", key)
	}
	return &s, nil
}
