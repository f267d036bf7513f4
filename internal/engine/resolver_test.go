package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/aslan-crm/automation/internal/domain"
)

func TestResolver_CreatesDependentTask(t *testing.T) {
	store := newFakeStore()
	u1, u2 := uuid.New(), uuid.New()
	store.addOrder(42, "Кухня Иванова", "cutting")
	a := store.addImmediateSetting("cutting", "Распил", &u1)
	c := store.addDependentSetting("cutting", "Проверка распила", &u2, a.ID)

	materializer, _, resolver := newEngine(store, newFakeLocker(), &fakeNotifier{})

	if _, err := materializer.MaterializeStage(context.Background(), 42, "cutting", "Кухня Иванова"); err != nil {
		t.Fatalf("materialize: %v", err)
	}
	taskA := store.taskBySetting(42, a.ID)
	store.completeTask(42, a.ID)

	result, err := resolver.ResolveDependents(context.Background(), taskA.ID, a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Error("resolution should succeed")
	}
	if result.TasksCreated() != 1 {
		t.Fatalf("expected 1 dependent task, got %d", result.TasksCreated())
	}

	taskC := store.taskBySetting(42, c.ID)
	if taskC == nil {
		t.Fatal("dependent task should exist")
	}
	if taskC.Status != domain.TaskStatusInProgress {
		t.Errorf("dependent task should start in_progress, got %s", taskC.Status)
	}
}

func TestResolver_DependentNotCreatedBeforeParentCompletes(t *testing.T) {
	// Настройка after_task материализуется только через Resolver —
	// события других этапов её не создают
	store := newFakeStore()
	u1, u2 := uuid.New(), uuid.New()
	store.addOrder(42, "Шкаф", "cutting")
	a := store.addImmediateSetting("cutting", "Распил", &u1)
	c := store.addDependentSetting("cutting", "Проверка распила", &u2, a.ID)

	materializer, _, _ := newEngine(store, newFakeLocker(), &fakeNotifier{})
	if _, err := materializer.MaterializeStage(context.Background(), 42, "cutting", "Шкаф"); err != nil {
		t.Fatalf("materialize: %v", err)
	}

	if store.taskBySetting(42, c.ID) != nil {
		t.Error("dependent task must not exist before parent completion")
	}
}

func TestResolver_Idempotent(t *testing.T) {
	store := newFakeStore()
	u1 := uuid.New()
	store.addOrder(42, "Шкаф", "cutting")
	a := store.addImmediateSetting("cutting", "Распил", &u1)
	c := store.addDependentSetting("cutting", "Проверка распила", &u1, a.ID)

	materializer, _, resolver := newEngine(store, newFakeLocker(), &fakeNotifier{})
	if _, err := materializer.MaterializeStage(context.Background(), 42, "cutting", "Шкаф"); err != nil {
		t.Fatalf("materialize: %v", err)
	}
	taskA := store.taskBySetting(42, a.ID)
	store.completeTask(42, a.ID)

	first, err := resolver.ResolveDependents(context.Background(), taskA.ID, a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.TasksCreated() != 1 {
		t.Fatalf("expected 1 task, got %d", first.TasksCreated())
	}

	// Повторное событие завершения (retry) не создаёт дубликата
	second, err := resolver.ResolveDependents(context.Background(), taskA.ID, a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.TasksCreated() != 0 {
		t.Errorf("retry must not create duplicates, got %d", second.TasksCreated())
	}
	if store.taskBySetting(42, c.ID) == nil {
		t.Fatal("dependent task should still exist")
	}
}

func TestResolver_OrderMovedPastStage(t *testing.T) {
	store := newFakeStore()
	u1 := uuid.New()
	store.addOrder(42, "Шкаф", "cutting")
	a := store.addImmediateSetting("cutting", "Распил", &u1)
	store.addDependentSetting("cutting", "Проверка распила", &u1, a.ID)

	materializer, _, resolver := newEngine(store, newFakeLocker(), &fakeNotifier{})
	if _, err := materializer.MaterializeStage(context.Background(), 42, "cutting", "Шкаф"); err != nil {
		t.Fatalf("materialize: %v", err)
	}
	taskA := store.taskBySetting(42, a.ID)

	// Заказ уже переведён дальше
	store.orders[42].Status = "edging"

	before := store.taskCount()
	result, err := resolver.ResolveDependents(context.Background(), taskA.ID, a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.Message != MsgOrderMoved {
		t.Errorf("expected %q no-op, got %+v", MsgOrderMoved, result)
	}
	if store.taskCount() != before {
		t.Error("no tasks must be created once the order moved on")
	}
}

func TestResolver_TaskNotFound(t *testing.T) {
	store := newFakeStore()
	_, _, resolver := newEngine(store, newFakeLocker(), &fakeNotifier{})

	_, err := resolver.ResolveDependents(context.Background(), 99, uuid.New())
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestResolver_TriggersEvaluation(t *testing.T) {
	// Полный сценарий: завершение последней задачи этапа через Resolver
	// переводит заказ на следующий этап
	store := newFakeStore()
	u1 := uuid.New()
	store.addOrder(42, "Кухня Иванова", "cutting")
	a := store.addImmediateSetting("cutting", "Распил", &u1)
	store.addLink("cutting", strPtr("edging"), true)

	materializer, _, resolver := newEngine(store, newFakeLocker(), &fakeNotifier{})
	if _, err := materializer.MaterializeStage(context.Background(), 42, "cutting", "Кухня Иванова"); err != nil {
		t.Fatalf("materialize: %v", err)
	}
	taskA := store.taskBySetting(42, a.ID)
	store.completeTask(42, a.ID)

	result, err := resolver.ResolveDependents(context.Background(), taskA.ID, a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Evaluation == nil {
		t.Fatal("evaluation should run after resolution")
	}
	if !result.Evaluation.Advanced {
		t.Fatalf("order should advance, got %q", result.Evaluation.Message)
	}
	if store.orderStatus(42) != "edging" {
		t.Errorf("expected edging, got %s", store.orderStatus(42))
	}
}

func TestResolver_IncompleteDependentBlocksAdvance(t *testing.T) {
	// A и B завершены, но зависимая C создана и не завершена —
	// заказ остаётся на этапе
	store := newFakeStore()
	u1, u2 := uuid.New(), uuid.New()
	store.addOrder(42, "Шкаф", "cutting")
	a := store.addImmediateSetting("cutting", "Распил", &u1)
	b := store.addImmediateSetting("cutting", "Маркировка", &u2)
	c := store.addDependentSetting("cutting", "Проверка распила", &u1, a.ID)
	store.addLink("cutting", strPtr("edging"), true)

	materializer, _, resolver := newEngine(store, newFakeLocker(), &fakeNotifier{})
	if _, err := materializer.MaterializeStage(context.Background(), 42, "cutting", "Шкаф"); err != nil {
		t.Fatalf("materialize: %v", err)
	}
	taskA := store.taskBySetting(42, a.ID)
	store.completeTask(42, a.ID)
	store.completeTask(42, b.ID)

	// Завершение A создаёт C; C не завершена
	result, err := resolver.ResolveDependents(context.Background(), taskA.ID, a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TasksCreated() != 1 {
		t.Fatalf("expected dependent task created, got %d", result.TasksCreated())
	}
	if result.Evaluation == nil {
		t.Fatal("evaluation should run")
	}
	if result.Evaluation.Advanced {
		t.Error("order must not advance while dependent task is incomplete")
	}
	if result.Evaluation.IncompleteTask != "Проверка распила" {
		t.Errorf("expected Проверка распила incomplete, got %q", result.Evaluation.IncompleteTask)
	}
	if store.orderStatus(42) != "cutting" {
		t.Error("order must stay on cutting")
	}

	// Завершение C доводит этап до готовности
	store.completeTask(42, c.ID)
	taskC := store.taskBySetting(42, c.ID)

	result, err = resolver.ResolveDependents(context.Background(), taskC.ID, c.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Evaluation == nil || !result.Evaluation.Advanced {
		t.Fatal("order should advance after all tasks complete")
	}
	if store.orderStatus(42) != "edging" {
		t.Errorf("expected edging, got %s", store.orderStatus(42))
	}
}

func TestResolver_CrossStageDependentSkipped(t *testing.T) {
	// Защитная перепроверка: зависимая настройка другого этапа не создаётся
	store := newFakeStore()
	u1 := uuid.New()
	store.addOrder(42, "Шкаф", "cutting")
	a := store.addImmediateSetting("cutting", "Распил", &u1)
	cross := store.addDependentSetting("edging", "Чужой этап", &u1, a.ID)

	materializer, _, resolver := newEngine(store, newFakeLocker(), &fakeNotifier{})
	if _, err := materializer.MaterializeStage(context.Background(), 42, "cutting", "Шкаф"); err != nil {
		t.Fatalf("materialize: %v", err)
	}
	taskA := store.taskBySetting(42, a.ID)
	store.completeTask(42, a.ID)

	result, err := resolver.ResolveDependents(context.Background(), taskA.ID, a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TasksCreated() != 0 {
		t.Errorf("cross-stage dependent must be skipped, got %d", result.TasksCreated())
	}
	if store.taskBySetting(42, cross.ID) != nil {
		t.Error("cross-stage task must not exist")
	}
}
