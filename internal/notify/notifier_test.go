package notify

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"

	"github.com/aslan-crm/automation/internal/domain"
)

type fakeHistory struct {
	notes []domain.Notification
	err   error
}

func (f *fakeHistory) Create(_ context.Context, n *domain.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.notes = append(f.notes, *n)
	return nil
}

type fakeSubs struct {
	subs    map[uuid.UUID][]domain.PushSubscription
	deleted []string
}

func newFakeSubs() *fakeSubs {
	return &fakeSubs{subs: make(map[uuid.UUID][]domain.PushSubscription)}
}

func (f *fakeSubs) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.PushSubscription, error) {
	return f.subs[userID], nil
}

func (f *fakeSubs) DeleteByEndpoint(_ context.Context, endpoint string) error {
	f.deleted = append(f.deleted, endpoint)
	return nil
}

// testVAPID генерирует настоящие VAPID-ключи, чтобы пройти подпись.
func testVAPID(t *testing.T) VAPIDConfig {
	t.Helper()
	priv, pub, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate vapid keys: %v", err)
	}
	return VAPIDConfig{PublicKey: pub, PrivateKey: priv, Subscriber: "mailto:admin@example.com"}
}

// testSubscription создаёт подписку с валидными ключами шифрования,
// указывающую на тестовый push-сервер.
func testSubscription(t *testing.T, userID uuid.UUID, endpoint string) domain.PushSubscription {
	t.Helper()
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate p256 key: %v", err)
	}
	auth := make([]byte, 16)
	if _, err := rand.Read(auth); err != nil {
		t.Fatalf("generate auth secret: %v", err)
	}
	return domain.PushSubscription{
		ID:       uuid.New(),
		UserID:   userID,
		Endpoint: endpoint,
		P256dh:   base64.RawURLEncoding.EncodeToString(priv.PublicKey().Bytes()),
		Auth:     base64.RawURLEncoding.EncodeToString(auth),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifier_SendDeliversPush(t *testing.T) {
	received := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received++
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	userID := uuid.New()
	history := &fakeHistory{}
	subs := newFakeSubs()
	subs.subs[userID] = []domain.PushSubscription{testSubscription(t, userID, srv.URL)}

	n := New(history, subs, testVAPID(t), discardLogger())

	taskID := int64(101)
	sent, total, err := n.Send(context.Background(), &domain.Notification{
		UserID: userID,
		Title:  "Новая задача",
		Body:   "Распил по заказу 42",
		TaskID: &taskID,
		URL:    WorkerDashboardURL,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent != 1 || total != 1 {
		t.Errorf("expected sent=1 total=1, got %d/%d", sent, total)
	}

	if len(history.notes) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(history.notes))
	}
	if history.notes[0].ID == uuid.Nil {
		t.Error("notification id should be assigned")
	}
	if received != 1 {
		t.Errorf("expected 1 push delivery, got %d", received)
	}
}

func TestNotifier_PushDisabledStillSavesHistory(t *testing.T) {
	userID := uuid.New()
	history := &fakeHistory{}
	subs := newFakeSubs()
	subs.subs[userID] = []domain.PushSubscription{testSubscription(t, userID, "http://push.invalid")}

	n := New(history, subs, VAPIDConfig{}, discardLogger())

	sent, _, err := n.Send(context.Background(), &domain.Notification{UserID: userID, Title: "t", Body: "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent != 0 {
		t.Errorf("nothing should be sent with push disabled, got %d", sent)
	}
	if len(history.notes) != 1 {
		t.Fatalf("history must be written even without push, got %d entries", len(history.notes))
	}
}

func TestNotifier_StaleSubscriptionDeleted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	userID := uuid.New()
	history := &fakeHistory{}
	subs := newFakeSubs()
	sub := testSubscription(t, userID, srv.URL)
	subs.subs[userID] = []domain.PushSubscription{sub}

	n := New(history, subs, testVAPID(t), discardLogger())

	sent, total, err := n.Send(context.Background(), &domain.Notification{UserID: userID, Title: "t", Body: "b"})
	if err != nil {
		t.Fatalf("push failure must not fail the operation: %v", err)
	}
	if sent != 0 || total != 1 {
		t.Errorf("expected sent=0 total=1, got %d/%d", sent, total)
	}
	if len(subs.deleted) != 1 || subs.deleted[0] != sub.Endpoint {
		t.Errorf("stale subscription should be deleted, got %v", subs.deleted)
	}
}

func TestNotifier_HistoryFailureIsAnError(t *testing.T) {
	history := &fakeHistory{err: errors.New("db down")}
	n := New(history, newFakeSubs(), VAPIDConfig{}, discardLogger())

	_, _, err := n.Send(context.Background(), &domain.Notification{UserID: uuid.New(), Title: "t"})
	if err == nil {
		t.Fatal("expected error when history write fails")
	}
}

func TestNotifier_NotifyNewTask(t *testing.T) {
	userID := uuid.New()
	history := &fakeHistory{}
	n := New(history, newFakeSubs(), VAPIDConfig{}, discardLogger())

	if err := n.NotifyNewTask(context.Background(), userID, "Распил по заказу 42", 101, 42); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(history.notes) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(history.notes))
	}
	note := history.notes[0]
	if note.Title != "Новая задача" {
		t.Errorf("expected title Новая задача, got %q", note.Title)
	}
	if note.Body != "Распил по заказу 42" {
		t.Errorf("unexpected body %q", note.Body)
	}
	if note.URL != WorkerDashboardURL {
		t.Errorf("expected url %q, got %q", WorkerDashboardURL, note.URL)
	}
	if note.TaskID == nil || *note.TaskID != 101 {
		t.Error("task id should be carried into the notification")
	}
	if note.OrderID == nil || *note.OrderID != 42 {
		t.Error("order id should be carried into the notification")
	}
}
