package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/aslan-crm/automation/internal/engine"
	"github.com/aslan-crm/automation/internal/mq"
)

type fakeResolver struct {
	calls []int64
	err   error
}

func (f *fakeResolver) ResolveDependents(_ context.Context, taskID int64, _ uuid.UUID) (*engine.ResolveResult, error) {
	f.calls = append(f.calls, taskID)
	if f.err != nil {
		return nil, f.err
	}
	return &engine.ResolveResult{Success: true}, nil
}

func newTestWorker(resolver *fakeResolver) *Worker {
	return New(Config{
		Resolver: resolver,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func completedDelivery(taskID int64, settingID uuid.UUID) *mq.Delivery {
	return &mq.Delivery{
		Message: mq.Message{
			ID:   uuid.New().String(),
			Type: mq.MessageTypeTaskCompleted,
			Payload: map[string]any{
				"task_id":               taskID,
				"automation_setting_id": settingID.String(),
				"order_id":              42,
			},
		},
	}
}

func TestHandleTaskCompleted(t *testing.T) {
	resolver := &fakeResolver{}
	w := newTestWorker(resolver)

	err := w.handleTaskCompleted(context.Background(), completedDelivery(101, uuid.New()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resolver.calls) != 1 || resolver.calls[0] != 101 {
		t.Errorf("resolver should be called with task 101, got %v", resolver.calls)
	}
}

func TestHandleTaskCompleted_IncompletePayloadDropped(t *testing.T) {
	resolver := &fakeResolver{}
	w := newTestWorker(resolver)

	err := w.handleTaskCompleted(context.Background(), completedDelivery(0, uuid.New()))
	if err != nil {
		t.Fatalf("incomplete payload must be dropped, not retried: %v", err)
	}
	if len(resolver.calls) != 0 {
		t.Errorf("resolver must not be called, got %v", resolver.calls)
	}
}

func TestHandleTaskCompleted_StaleEventDropped(t *testing.T) {
	resolver := &fakeResolver{err: fmt.Errorf("%w: task 101", engine.ErrTaskNotFound)}
	w := newTestWorker(resolver)

	err := w.handleTaskCompleted(context.Background(), completedDelivery(101, uuid.New()))
	if err != nil {
		t.Fatalf("stale event must be dropped, not retried: %v", err)
	}
}

func TestHandleTaskCompleted_SystemicErrorRetried(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("db timeout")}
	w := newTestWorker(resolver)

	err := w.handleTaskCompleted(context.Background(), completedDelivery(101, uuid.New()))
	if err == nil {
		t.Fatal("systemic error must be returned for retry")
	}
}
