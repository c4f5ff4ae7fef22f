package models

// Task ids are chosen by the client, so the primary key is not auto-incremented.
type Task struct {
	ID          int64   `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Description string  `json:"description"`
	Completed   bool    `json:"completed" gorm:"not null;default:false"`
	DueDate     string  `json:"due_date"`
	Location    *string `json:"location"`
	OwnerID     int64   `json:"owner_id" gorm:"not null;index"`

	Owner *User `json:"-" gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
}

func (Task) TableName() string {
	return "task_data"
}

// HasLocation reports whether the task should be enriched with weather data.
func (t *Task) HasLocation() bool {
	return t.Location != nil
}
