package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func setting(stage string, parent *uuid.UUID) AutomationSetting {
	s := AutomationSetting{
		ID:             uuid.New(),
		StageID:        stage,
		TaskName:       "task-" + uuid.NewString()[:8],
		StartCondition: StartImmediate,
	}
	if parent != nil {
		s.StartCondition = StartAfterTask
		s.DependsOnTaskID = parent
	}
	return s
}

func TestValidateDependencies_NoDeps(t *testing.T) {
	settings := []AutomationSetting{
		setting("cutting", nil),
		setting("cutting", nil),
		setting("edging", nil),
	}

	if err := ValidateDependencies(settings); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateDependencies_Chain(t *testing.T) {
	// A → B → C в пределах одного этапа — валидно
	a := setting("cutting", nil)
	b := setting("cutting", &a.ID)
	c := setting("cutting", &b.ID)

	if err := ValidateDependencies([]AutomationSetting{a, b, c}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateDependencies_Cycle(t *testing.T) {
	// A → B → A — цикл
	a := setting("cutting", nil)
	b := setting("cutting", &a.ID)
	a.StartCondition = StartAfterTask
	a.DependsOnTaskID = &b.ID

	err := ValidateDependencies([]AutomationSetting{a, b})
	if !errors.Is(err, ErrDependencyCycle) {
		t.Fatalf("expected ErrDependencyCycle, got %v", err)
	}
}

func TestValidateDependencies_SelfReference(t *testing.T) {
	a := setting("cutting", nil)
	a.StartCondition = StartAfterTask
	a.DependsOnTaskID = &a.ID

	err := ValidateDependencies([]AutomationSetting{a})
	if !errors.Is(err, ErrDependencyCycle) {
		t.Fatalf("expected ErrDependencyCycle, got %v", err)
	}
}

func TestValidateDependencies_CrossStage(t *testing.T) {
	a := setting("cutting", nil)
	b := setting("edging", &a.ID)

	err := ValidateDependencies([]AutomationSetting{a, b})
	if !errors.Is(err, ErrCrossStageDependency) {
		t.Fatalf("expected ErrCrossStageDependency, got %v", err)
	}
}

func TestValidateDependencies_UnknownParent(t *testing.T) {
	ghost := uuid.New()
	a := setting("cutting", &ghost)

	err := ValidateDependencies([]AutomationSetting{a})
	if !errors.Is(err, ErrUnknownDependency) {
		t.Fatalf("expected ErrUnknownDependency, got %v", err)
	}
}

func TestAutomationSetting_Validate(t *testing.T) {
	parent := uuid.New()
	resp := uuid.New()

	valid := AutomationSetting{
		ID:                uuid.New(),
		StageID:           "cutting",
		TaskName:          "Распилить детали",
		ResponsibleUserID: &resp,
		DurationDays:      2,
		StartCondition:    StartImmediate,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*AutomationSetting)
	}{
		{"empty stage", func(s *AutomationSetting) { s.StageID = "" }},
		{"empty task name", func(s *AutomationSetting) { s.TaskName = "" }},
		{"negative payment", func(s *AutomationSetting) { s.PaymentAmount = -1 }},
		{"zero duration", func(s *AutomationSetting) { s.DurationDays = 0 }},
		{"percentage over 100", func(s *AutomationSetting) { s.DispatcherPercentage = 101 }},
		{"immediate with parent", func(s *AutomationSetting) { s.DependsOnTaskID = &parent }},
		{"after_task without parent", func(s *AutomationSetting) { s.StartCondition = StartAfterTask }},
		{"unknown condition", func(s *AutomationSetting) { s.StartCondition = "someday" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			if err := s.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestStageName(t *testing.T) {
	if got := StageName("cutting"); got != "Распил" {
		t.Errorf("expected Распил, got %s", got)
	}
	// Неизвестный этап возвращается как есть
	if got := StageName("varnishing"); got != "varnishing" {
		t.Errorf("expected varnishing, got %s", got)
	}
}

func TestStageChainLink_IsTerminal(t *testing.T) {
	next := "edging"
	link := StageChainLink{FromStageID: "cutting", ToStageID: &next}
	if link.IsTerminal() {
		t.Error("link with to_stage should not be terminal")
	}

	link.ToStageID = nil
	if !link.IsTerminal() {
		t.Error("link without to_stage should be terminal")
	}
}
