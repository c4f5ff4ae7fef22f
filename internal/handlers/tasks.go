package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"task-weather/backend/internal/middleware"
	"task-weather/backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const maxTaskBodyBytes = 1 << 20

type TaskHandler struct {
	db          *gorm.DB
	taskService services.TaskService
	presenter   *services.TaskPresenter
}

func NewTaskHandler(db *gorm.DB, taskService services.TaskService, presenter *services.TaskPresenter) *TaskHandler {
	return &TaskHandler{db: db, taskService: taskService, presenter: presenter}
}

func (h *TaskHandler) GetTasks(c *gin.Context) {
	ownerID, ok := requireUser(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListTasks(h.db, ownerID)
	if err != nil {
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.presenter.PresentAll(c.Request.Context(), tasks))
}

func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	ownerID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := taskIDParam(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(h.db, ownerID, id)
	if err != nil {
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.presenter.Present(c.Request.Context(), task))
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	ownerID, ok := requireUser(c)
	if !ok {
		return
	}

	body, present, err := readJSONBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}
	if !present {
		c.JSON(http.StatusNotFound, gin.H{"error": "No task data provided"})
		return
	}
	fields, ok := body.(map[string]interface{})
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Task data must be a JSON object"})
		return
	}

	if _, err := h.taskService.CreateTask(h.db, ownerID, fields); err != nil {
		handleTaskError(c, err)
		return
	}
	c.String(http.StatusCreated, "POST CREATED")
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	ownerID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := taskIDParam(c)
	if !ok {
		return
	}

	body, present, err := readJSONBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}
	if !present {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No update data provided"})
		return
	}
	patch, ok := body.(map[string]interface{})
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Update data must be a JSON object"})
		return
	}

	task, err := h.taskService.UpdateTask(h.db, ownerID, id, patch)
	if err != nil {
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.presenter.Present(c.Request.Context(), task))
}

// DeleteTask requires a JSON body on the request; its contents are not used.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	ownerID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := taskIDParam(c)
	if !ok {
		return
	}

	_, present, err := readJSONBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}
	if !present {
		c.JSON(http.StatusNotFound, gin.H{"error": "No task data provided"})
		return
	}

	if err := h.taskService.DeleteTask(h.db, ownerID, id); err != nil {
		handleTaskError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func requireUser(c *gin.Context) (int64, bool) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Token is missing!"})
	}
	return id, ok
}

// taskIDParam answers 404 for ids that are not integers, since no task can
// have them.
func taskIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return 0, false
	}
	return id, true
}

// readJSONBody decodes the request body keeping numbers as json.Number.
// present is false for an empty body or a literal null.
func readJSONBody(c *gin.Context) (body interface{}, present bool, err error) {
	if c.Request.Body == nil {
		return nil, false, nil
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxTaskBodyBytes))
	if err != nil {
		return nil, false, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, false, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, false, err
	}
	if dec.More() {
		return nil, false, errors.New("unexpected data after JSON value")
	}
	return body, body != nil, nil
}

func handleTaskError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
	case errors.Is(err, services.ErrTaskConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "A task with this id already exists"})
	default:
		log.Printf("task request %s %s failed [%s]: %v",
			c.Request.Method, c.Request.URL.Path, middleware.RequestID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process task request"})
	}
}
