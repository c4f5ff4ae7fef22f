package services_test

import (
	"context"
	"encoding/json"
	"testing"

	"task-weather/backend/internal/models"
	"task-weather/backend/internal/services"
	"task-weather/backend/internal/weather"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockWeatherLookup struct {
	mock.Mock
}

func (m *MockWeatherLookup) Lookup(ctx context.Context, location string) weather.Report {
	args := m.Called(ctx, location)
	return args.Get(0).(weather.Report)
}

func presentJSON(t *testing.T, v interface{}) map[string]interface{} {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestPresent_WithoutLocation(t *testing.T) {
	lookup := new(MockWeatherLookup)
	presenter := services.NewTaskPresenter(lookup)

	view := presenter.Present(context.Background(), models.Task{
		ID: 1, Description: "buy milk", DueDate: "2025-01-01",
	})

	body := presentJSON(t, view)
	assert.Equal(t, map[string]interface{}{
		"id":          float64(1),
		"description": "buy milk",
		"completed":   false,
		"due_date":    "2025-01-01",
	}, body)
	lookup.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
}

func TestPresent_WithLocation(t *testing.T) {
	lookup := new(MockWeatherLookup)
	lookup.On("Lookup", mock.Anything, "Austin").
		Return(weather.Available(weather.Summary{Description: "clear sky", Temperature: 72.5}))

	location := "Austin"
	view := services.NewTaskPresenter(lookup).Present(context.Background(), models.Task{
		ID: 2, Description: "run", Completed: true, DueDate: "tomorrow", Location: &location,
	})

	body := presentJSON(t, view)
	assert.Equal(t, "Austin", body["location"])
	assert.Equal(t, map[string]interface{}{"description": "clear sky", "temperature": 72.5}, body["weather"])
	lookup.AssertExpectations(t)
}

func TestPresent_NoData(t *testing.T) {
	lookup := new(MockWeatherLookup)
	lookup.On("Lookup", mock.Anything, "Atlantis").Return(weather.NoData)

	location := "Atlantis"
	view := services.NewTaskPresenter(lookup).Present(context.Background(), models.Task{ID: 3, Location: &location})

	body := presentJSON(t, view)
	assert.Equal(t, "No Data Found", body["weather"])
}

func TestPresentAll_EmptyIsArray(t *testing.T) {
	views := services.NewTaskPresenter(nil).PresentAll(context.Background(), nil)

	data, err := json.Marshal(views)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestCoerceBool(t *testing.T) {
	tests := []struct {
		in      interface{}
		want    bool
		wantErr bool
	}{
		{in: true, want: true},
		{in: false, want: false},
		{in: "TRUE", want: true},
		{in: "False", want: false},
		{in: "true", want: true},
		{in: "maybe", wantErr: true},
		{in: "", wantErr: true},
		{in: float64(1), wantErr: true},
		{in: nil, wantErr: true},
	}

	for _, tt := range tests {
		got, err := services.CoerceBool(tt.in)
		if tt.wantErr {
			var verr *services.ValidationError
			if assert.ErrorAs(t, err, &verr, "CoerceBool(%v)", tt.in) {
				assert.Equal(t, "Invalid value for 'completed'. Must be true or false.", verr.Message)
			}
			continue
		}
		assert.NoError(t, err, "CoerceBool(%v)", tt.in)
		assert.Equal(t, tt.want, got, "CoerceBool(%v)", tt.in)
	}
}
