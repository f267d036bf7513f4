package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/aslan-crm/automation/internal/domain"
)

// SendNotification пишет уведомление в историю и рассылает push.
// POST /api/v1/notifications/send
func (h *Handler) SendNotification(w http.ResponseWriter, r *http.Request) {
	var req SendNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.UserID == uuid.Nil {
		BadRequest(w, "user_id is required")
		return
	}
	if req.Title == "" {
		BadRequest(w, "title is required")
		return
	}

	sent, total, err := h.notifier.Send(r.Context(), &domain.Notification{
		UserID:  req.UserID,
		Title:   req.Title,
		Body:    req.Body,
		TaskID:  req.TaskID,
		OrderID: req.OrderID,
		URL:     req.URL,
	})
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Success(w, SendNotificationResponse{Sent: sent, Total: total})
}

// Subscribe регистрирует push-подписку устройства.
// POST /api/v1/push-subscriptions
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.UserID == uuid.Nil || req.Endpoint == "" {
		BadRequest(w, "user_id and endpoint are required")
		return
	}
	if req.Keys.P256dh == "" || req.Keys.Auth == "" {
		BadRequest(w, "subscription keys are required")
		return
	}

	sub := domain.PushSubscription{
		ID:        uuid.New(),
		UserID:    req.UserID,
		Endpoint:  req.Endpoint,
		P256dh:    req.Keys.P256dh,
		Auth:      req.Keys.Auth,
		CreatedAt: time.Now(),
	}

	if err := h.subRepo.Upsert(r.Context(), &sub); HandleRepoError(w, h.logger, err, "") {
		return
	}

	Created(w, sub)
}

// Unsubscribe удаляет push-подписку по endpoint.
// DELETE /api/v1/push-subscriptions
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req UnsubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Endpoint == "" {
		BadRequest(w, "endpoint is required")
		return
	}

	if err := h.subRepo.DeleteByEndpoint(r.Context(), req.Endpoint); HandleRepoError(w, h.logger, err, "") {
		return
	}

	NoContent(w)
}
