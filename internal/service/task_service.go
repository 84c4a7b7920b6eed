package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"whatnow/internal/model"
	"whatnow/internal/repository"
)

// TaskInput represents data required to create or edit a task.
type TaskInput struct {
	Name        string
	Description string
	Type        string
	Time        int
	Energy      model.Level
	Social      model.Level
	DueDate     *time.Time
	Recurring   string
}

// ImportDefaults are applied to imported lines that do not carry their
// own attributes.
type ImportDefaults struct {
	Type   string
	Time   int
	Energy model.Level
	Social model.Level
}

// TaskService wraps task-related business logic.
type TaskService struct {
	taskRepo *repository.TaskRepository
}

func NewTaskService(taskRepo *repository.TaskRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo}
}

func (s *TaskService) CreateTask(ctx context.Context, owner *model.Profile, input TaskInput) (*model.Task, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("name is required")
	}

	task := model.Task{
		UserID:      owner.ID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Type:        input.Type,
		Time:        input.Time,
		Energy:      input.Energy,
		Social:      input.Social,
		DueDate:     input.DueDate,
		Recurring:   input.Recurring,
	}

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *TaskService) List(ctx context.Context, owner *model.Profile) ([]model.Task, error) {
	return s.taskRepo.ListByOwner(ctx, owner.ID)
}

func (s *TaskService) GetTask(ctx context.Context, owner *model.Profile, taskID uint) (*model.Task, error) {
	return s.taskRepo.FindByID(ctx, owner.ID, taskID)
}

// UpdateField sets a single attribute of the task. The field name follows
// the edit menu: name, description, type, time, energy, social, due, recurring.
func (s *TaskService) UpdateField(ctx context.Context, owner *model.Profile, taskID uint, field, raw string) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, owner.ID, taskID)
	if err != nil {
		return nil, err
	}

	raw = strings.TrimSpace(raw)
	switch field {
	case "name":
		if raw == "" {
			return nil, fmt.Errorf("name cannot be empty")
		}
		task.Name = raw
	case "description":
		task.Description = raw
	case "type":
		if raw == "" {
			return nil, fmt.Errorf("type cannot be empty")
		}
		task.Type = raw
	case "time":
		minutes, err := strconv.Atoi(strings.TrimSuffix(raw, " min"))
		if err != nil || minutes <= 0 {
			return nil, fmt.Errorf("time must be a positive number of minutes")
		}
		task.Time = minutes
	case "energy":
		level, ok := model.ParseLevel(raw)
		if !ok {
			return nil, fmt.Errorf("energy must be low, medium or high")
		}
		task.Energy = level
	case "social":
		level, ok := model.ParseLevel(raw)
		if !ok {
			return nil, fmt.Errorf("social must be low, medium or high")
		}
		task.Social = level
	case "due":
		if raw == "" || raw == "-" {
			task.DueDate = nil
		} else {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				return nil, fmt.Errorf("due date must look like 2026-12-31")
			}
			task.DueDate = &parsed
		}
	case "recurring":
		switch strings.ToLower(raw) {
		case "", "-", "none":
			task.Recurring = ""
		case model.RecurDaily, model.RecurWeekly, model.RecurMonthly:
			task.Recurring = strings.ToLower(raw)
		default:
			return nil, fmt.Errorf("recurrence must be none, daily, weekly or monthly")
		}
	default:
		return nil, fmt.Errorf("unknown field %q", field)
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, owner *model.Profile, taskID uint) error {
	return s.taskRepo.Delete(ctx, owner.ID, taskID)
}

// ParseTextImport turns pasted text, one task name per line, into inputs
// carrying the shared defaults.
func ParseTextImport(text string, def ImportDefaults) []TaskInput {
	var inputs []TaskInput
	for _, line := range strings.Split(text, "\n") {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		inputs = append(inputs, TaskInput{
			Name:   name,
			Type:   def.Type,
			Time:   def.Time,
			Energy: def.Energy,
			Social: def.Social,
		})
	}
	return inputs
}

// ParseCSVImport turns pasted "name,type,time,energy,social" lines into
// inputs. Missing or invalid fields fall back to the defaults; the name
// alone is enough for a line to count.
func ParseCSVImport(text string, def ImportDefaults) []TaskInput {
	var inputs []TaskInput
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		input := TaskInput{
			Name:   parts[0],
			Type:   def.Type,
			Time:   def.Time,
			Energy: def.Energy,
			Social: def.Social,
		}
		if input.Name == "" {
			continue
		}
		if len(parts) > 1 && containsString(model.SuggestedTypes, parts[1]) {
			input.Type = parts[1]
		}
		if len(parts) > 2 {
			if minutes, err := strconv.Atoi(parts[2]); err == nil && containsInt(model.TimeOptions, minutes) {
				input.Time = minutes
			}
		}
		if len(parts) > 3 {
			if level, ok := model.ParseLevel(parts[3]); ok {
				input.Energy = level
			}
		}
		if len(parts) > 4 {
			if level, ok := model.ParseLevel(parts[4]); ok {
				input.Social = level
			}
		}
		inputs = append(inputs, input)
	}
	return inputs
}

// Import bulk-creates the parsed tasks for the owner.
func (s *TaskService) Import(ctx context.Context, owner *model.Profile, inputs []TaskInput) (int, error) {
	if len(inputs) == 0 {
		return 0, nil
	}
	tasks := make([]model.Task, 0, len(inputs))
	for _, input := range inputs {
		if strings.TrimSpace(input.Name) == "" {
			continue
		}
		tasks = append(tasks, model.Task{
			UserID:      owner.ID,
			Name:        strings.TrimSpace(input.Name),
			Description: input.Description,
			Type:        input.Type,
			Time:        input.Time,
			Energy:      input.Energy,
			Social:      input.Social,
			DueDate:     input.DueDate,
			Recurring:   input.Recurring,
		})
	}
	if err := s.taskRepo.CreateBatch(ctx, tasks); err != nil {
		return 0, err
	}
	return len(tasks), nil
}

func containsString(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func containsInt(values []int, v int) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
