package service

import (
	"context"
	"reflect"
	"testing"

	"whatnow/internal/model"
	"whatnow/internal/points"
	"whatnow/internal/repository"
)

var importDefaults = ImportDefaults{Type: "Chores", Time: 15, Energy: model.LevelLow, Social: model.LevelLow}

func TestParseTextImport(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []TaskInput
	}{
		{
			name: "one per line with defaults",
			text: "Do laundry\nCall dentist",
			want: []TaskInput{
				{Name: "Do laundry", Type: "Chores", Time: 15, Energy: model.LevelLow, Social: model.LevelLow},
				{Name: "Call dentist", Type: "Chores", Time: 15, Energy: model.LevelLow, Social: model.LevelLow},
			},
		},
		{
			name: "blank lines and whitespace skipped",
			text: "  Water plants  \n\n   \nBuy milk",
			want: []TaskInput{
				{Name: "Water plants", Type: "Chores", Time: 15, Energy: model.LevelLow, Social: model.LevelLow},
				{Name: "Buy milk", Type: "Chores", Time: 15, Energy: model.LevelLow, Social: model.LevelLow},
			},
		},
		{
			name: "empty input",
			text: "   \n  ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTextImport(tt.text, importDefaults)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseTextImport() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseCSVImport(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []TaskInput
	}{
		{
			name: "full row",
			text: "Call mom,Social,30,medium,high",
			want: []TaskInput{
				{Name: "Call mom", Type: "Social", Time: 30, Energy: model.LevelMedium, Social: model.LevelHigh},
			},
		},
		{
			name: "name only gets defaults",
			text: "Do laundry",
			want: []TaskInput{
				{Name: "Do laundry", Type: "Chores", Time: 15, Energy: model.LevelLow, Social: model.LevelLow},
			},
		},
		{
			name: "unknown type and off-grid time fall back",
			text: "Fix bike,Garage,45,low,low",
			want: []TaskInput{
				{Name: "Fix bike", Type: "Chores", Time: 15, Energy: model.LevelLow, Social: model.LevelLow},
			},
		},
		{
			name: "level shorthand accepted",
			text: "Journal,Self-care,5,h,m",
			want: []TaskInput{
				{Name: "Journal", Type: "Self-care", Time: 5, Energy: model.LevelHigh, Social: model.LevelMedium},
			},
		},
		{
			name: "rows without a name are dropped",
			text: ",Work,30,low,low\nReal task",
			want: []TaskInput{
				{Name: "Real task", Type: "Chores", Time: 15, Energy: model.LevelLow, Social: model.LevelLow},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCSVImport(tt.text, importDefaults)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseCSVImport() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func newTaskFixture(t *testing.T, dbName string) (*TaskService, *model.Profile) {
	t.Helper()
	db := newTestDB(t, dbName)
	svc := NewTaskService(repository.NewTaskRepository(db))
	profile, err := repository.NewProfileRepository(db).UpsertFromTelegram(context.Background(), 200, "Sam", points.RankForPoints(0))
	if err != nil {
		t.Fatalf("upsert profile: %v", err)
	}
	return svc, profile
}

func TestCreateTaskRequiresName(t *testing.T) {
	svc, profile := newTaskFixture(t, "task_create")
	ctx := context.Background()

	if _, err := svc.CreateTask(ctx, profile, TaskInput{Name: "   "}); err == nil {
		t.Fatal("expected error for blank name")
	}

	task, err := svc.CreateTask(ctx, profile, TaskInput{Name: " Do laundry ", Type: "Chores", Time: 15, Energy: model.LevelLow, Social: model.LevelLow})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.Name != "Do laundry" {
		t.Errorf("Name = %q, want trimmed", task.Name)
	}
	if task.ID == 0 {
		t.Error("task was not persisted")
	}
}

func TestUpdateField(t *testing.T) {
	svc, profile := newTaskFixture(t, "task_update")
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, profile, TaskInput{Name: "Stretch", Type: "Health", Time: 15, Energy: model.LevelLow, Social: model.LevelLow, Recurring: model.RecurDaily})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	tests := []struct {
		field  string
		raw    string
		verify func(*model.Task) bool
		wantOK bool
	}{
		{"name", "Morning stretch", func(tk *model.Task) bool { return tk.Name == "Morning stretch" }, true},
		{"name", "  ", nil, false},
		{"time", "30 min", func(tk *model.Task) bool { return tk.Time == 30 }, true},
		{"time", "soon", nil, false},
		{"energy", "h", func(tk *model.Task) bool { return tk.Energy == model.LevelHigh }, true},
		{"social", "Medium", func(tk *model.Task) bool { return tk.Social == model.LevelMedium }, true},
		{"energy", "extreme", nil, false},
		{"due", "2026-12-31", func(tk *model.Task) bool { return tk.DueDate != nil && tk.DueDate.Year() == 2026 }, true},
		{"due", "-", func(tk *model.Task) bool { return tk.DueDate == nil }, true},
		{"due", "tomorrow", nil, false},
		{"recurring", "weekly", func(tk *model.Task) bool { return tk.Recurring == model.RecurWeekly }, true},
		{"recurring", "none", func(tk *model.Task) bool { return tk.Recurring == "" }, true},
		{"recurring", "hourly", nil, false},
		{"color", "red", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.field+"="+tt.raw, func(t *testing.T) {
			got, err := svc.UpdateField(ctx, profile, task.ID, tt.field, tt.raw)
			if tt.wantOK {
				if err != nil {
					t.Fatalf("UpdateField: %v", err)
				}
				if !tt.verify(got) {
					t.Errorf("update %s=%q not applied: %+v", tt.field, tt.raw, got)
				}
			} else if err == nil {
				t.Errorf("expected error for %s=%q", tt.field, tt.raw)
			}
		})
	}
}

func TestImportPersistsParsedTasks(t *testing.T) {
	svc, profile := newTaskFixture(t, "task_import")
	ctx := context.Background()

	inputs := ParseTextImport("Do laundry\nBuy milk\nCall dentist", importDefaults)
	count, err := svc.Import(ctx, profile, inputs)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	tasks, err := svc.List(ctx, profile)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != 3 {
		t.Errorf("got %d tasks, want 3", len(tasks))
	}
	for _, task := range tasks {
		if task.Type != "Chores" || task.Time != 15 {
			t.Errorf("task %q did not get defaults: %+v", task.Name, task)
		}
	}
}

func TestImportEmptyInputIsNoop(t *testing.T) {
	svc, profile := newTaskFixture(t, "task_import_empty")
	ctx := context.Background()

	count, err := svc.Import(ctx, profile, nil)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}
