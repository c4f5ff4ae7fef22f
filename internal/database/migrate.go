package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"task-weather/backend/internal/models"

	"gorm.io/gorm"
)

// Migrate creates or updates the users and task_data tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Task{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// SeedTask mirrors one entry of the seed file.
type SeedTask struct {
	ID          int64   `json:"id"`
	Description string  `json:"description"`
	Completed   bool    `json:"completed"`
	DueDate     string  `json:"due_date"`
	Location    *string `json:"location"`
}

// SeedTasksFromFile loads a JSON array of tasks for the named user when the
// task table is empty. It returns the number of rows inserted.
func SeedTasksFromFile(db *gorm.DB, path, username string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	var owner models.User
	if err := db.Where("username = ?", username).First(&owner).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("seed owner %q does not exist", username)
		}
		return 0, err
	}

	return SeedTasks(db, owner.ID, f)
}

func SeedTasks(db *gorm.DB, ownerID int64, r io.Reader) (int, error) {
	var count int64
	if err := db.Model(&models.Task{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		log.Printf("Database found. Loading existing data (%d tasks).", count)
		return 0, nil
	}

	var entries []SeedTask
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return 0, fmt.Errorf("failed to decode seed data: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	tasks := make([]models.Task, 0, len(entries))
	for _, e := range entries {
		tasks = append(tasks, models.Task{
			ID:          e.ID,
			Description: e.Description,
			Completed:   e.Completed,
			DueDate:     e.DueDate,
			Location:    e.Location,
			OwnerID:     ownerID,
		})
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&tasks).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to seed tasks: %w", err)
	}

	log.Printf("Database successfully seeded with %d tasks", len(tasks))
	return len(tasks), nil
}
