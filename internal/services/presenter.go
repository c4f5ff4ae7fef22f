package services

import (
	"context"
	"strings"

	"task-weather/backend/internal/models"
	"task-weather/backend/internal/weather"
)

type WeatherLookup interface {
	Lookup(ctx context.Context, location string) weather.Report
}

// TaskView is the outward shape of a task. Location and Weather are present
// only when the task has a location.
type TaskView struct {
	ID          int64           `json:"id"`
	Description string          `json:"description"`
	Completed   bool            `json:"completed"`
	DueDate     string          `json:"due_date"`
	Location    *string         `json:"location,omitempty"`
	Weather     *weather.Report `json:"weather,omitempty"`
}

type TaskPresenter struct {
	weather WeatherLookup
}

func NewTaskPresenter(lookup WeatherLookup) *TaskPresenter {
	return &TaskPresenter{weather: lookup}
}

func (p *TaskPresenter) Present(ctx context.Context, task models.Task) TaskView {
	view := TaskView{
		ID:          task.ID,
		Description: task.Description,
		Completed:   task.Completed,
		DueDate:     task.DueDate,
	}
	if !task.HasLocation() {
		return view
	}

	location := *task.Location
	report := weather.NoData
	if p.weather != nil {
		report = p.weather.Lookup(ctx, location)
	}
	view.Location = &location
	view.Weather = &report
	return view
}

// PresentAll never returns nil so an empty list encodes as [].
func (p *TaskPresenter) PresentAll(ctx context.Context, tasks []models.Task) []TaskView {
	views := make([]TaskView, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, p.Present(ctx, task))
	}
	return views
}

// CoerceBool accepts a JSON boolean or the strings "true"/"false" in any case.
func CoerceBool(v interface{}) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		switch strings.ToLower(b) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, invalid(invalidCompletedMessage)
}
