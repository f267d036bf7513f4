package engine

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/aslan-crm/automation/internal/domain"
	"github.com/aslan-crm/automation/internal/repo"
)

func TestMaterializer_CreatesImmediateTasks(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	u1, u2 := uuid.New(), uuid.New()

	store.addOrder(42, "Кухня Иванова", "cutting")
	a := store.addImmediateSetting("cutting", "Распил", &u1)
	b := store.addImmediateSetting("cutting", "Маркировка", &u2)

	materializer, _, _ := newEngine(store, newFakeLocker(), notifier)

	created, err := materializer.MaterializeStage(context.Background(), 42, "cutting", "Кухня Иванова")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(created))
	}

	taskA := store.taskBySetting(42, a.ID)
	if taskA == nil {
		t.Fatal("task for setting A should exist")
	}
	if taskA.Title != "Распил по заказу 42" {
		t.Errorf("unexpected title: %q", taskA.Title)
	}
	if taskA.Description != "Распил (Заказ: Кухня Иванова)" {
		t.Errorf("unexpected description: %q", taskA.Description)
	}
	if taskA.Status != domain.TaskStatusInProgress {
		t.Errorf("expected in_progress, got %s", taskA.Status)
	}
	if taskA.Salary != 1000 {
		t.Errorf("expected salary 1000, got %v", taskA.Salary)
	}
	if taskA.AutomationSettingID == nil || *taskA.AutomationSettingID != a.ID {
		t.Error("task should reference its automation setting")
	}

	if store.taskBySetting(42, b.ID) == nil {
		t.Fatal("task for setting B should exist")
	}

	// Уведомления отправлены обоим ответственным
	if notifier.calls != 2 {
		t.Errorf("expected 2 notifications, got %d", notifier.calls)
	}
}

func TestMaterializer_Idempotent(t *testing.T) {
	// Повторная материализация этапа не создаёт дубликатов
	store := newFakeStore()
	u1 := uuid.New()
	store.addOrder(42, "Шкаф", "cutting")
	store.addImmediateSetting("cutting", "Распил", &u1)

	materializer, _, _ := newEngine(store, newFakeLocker(), &fakeNotifier{})

	first, err := materializer.MaterializeStage(context.Background(), 42, "cutting", "Шкаф")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 task, got %d", len(first))
	}

	second, err := materializer.MaterializeStage(context.Background(), 42, "cutting", "Шкаф")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(second) != 0 {
		t.Errorf("re-invocation should create nothing, got %d", len(second))
	}
	if store.taskCount() != 1 {
		t.Errorf("expected 1 task total, got %d", store.taskCount())
	}
}

func TestMaterializer_SkipsSettingWithoutResponsible(t *testing.T) {
	store := newFakeStore()
	u1 := uuid.New()
	store.addOrder(42, "Шкаф", "cutting")
	store.addImmediateSetting("cutting", "Распил", &u1)
	store.addImmediateSetting("cutting", "Без ответственного", nil)

	materializer, _, _ := newEngine(store, newFakeLocker(), &fakeNotifier{})

	created, err := materializer.MaterializeStage(context.Background(), 42, "cutting", "Шкаф")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created) != 1 {
		t.Errorf("expected 1 task, got %d", len(created))
	}
}

func TestMaterializer_SkipsDependentSettings(t *testing.T) {
	// after_task настройки этапа не материализуются при входе на этап
	store := newFakeStore()
	u1 := uuid.New()
	store.addOrder(42, "Шкаф", "cutting")
	a := store.addImmediateSetting("cutting", "Распил", &u1)
	store.addDependentSetting("cutting", "Проверка распила", &u1, a.ID)

	materializer, _, _ := newEngine(store, newFakeLocker(), &fakeNotifier{})

	created, err := materializer.MaterializeStage(context.Background(), 42, "cutting", "Шкаф")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created) != 1 {
		t.Errorf("expected only the immediate task, got %d", len(created))
	}
}

func TestMaterializer_InsertFailureDoesNotAbortBatch(t *testing.T) {
	store := newFakeStore()
	u1, u2 := uuid.New(), uuid.New()
	store.addOrder(42, "Шкаф", "cutting")
	a := store.addImmediateSetting("cutting", "Распил", &u1)
	b := store.addImmediateSetting("cutting", "Маркировка", &u2)
	store.failTaskInsert[a.ID] = repo.ErrAlreadyExists

	materializer, _, _ := newEngine(store, newFakeLocker(), &fakeNotifier{})

	created, err := materializer.MaterializeStage(context.Background(), 42, "cutting", "Шкаф")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Первая вставка провалилась, вторая задача всё равно создана
	if len(created) != 1 {
		t.Fatalf("expected 1 task, got %d", len(created))
	}
	if store.taskBySetting(42, b.ID) == nil {
		t.Error("task for setting B should exist despite A failing")
	}
}

func TestMaterializer_NotificationFailureKeepsTask(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{fail: true}
	u1 := uuid.New()
	store.addOrder(42, "Шкаф", "cutting")
	store.addImmediateSetting("cutting", "Распил", &u1)

	materializer, _, _ := newEngine(store, newFakeLocker(), notifier)

	created, err := materializer.MaterializeStage(context.Background(), 42, "cutting", "Шкаф")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created) != 1 {
		t.Errorf("task should be created even when notification fails, got %d", len(created))
	}
}

func TestMaterializer_EmptyStage(t *testing.T) {
	// Этап без настроек — нормальный исход, не ошибка
	store := newFakeStore()
	store.addOrder(42, "Шкаф", "sanding")

	materializer, _, _ := newEngine(store, newFakeLocker(), &fakeNotifier{})

	created, err := materializer.MaterializeStage(context.Background(), 42, "sanding", "Шкаф")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created) != 0 {
		t.Errorf("expected no tasks, got %d", len(created))
	}
}
