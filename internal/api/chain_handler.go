package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// ListChain возвращает все звенья цепочки этапов.
// GET /api/v1/automation/chain
func (h *Handler) ListChain(w http.ResponseWriter, r *http.Request) {
	links, err := h.chainRepo.List(r.Context())
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	List(w, links, len(links))
}

// SetChainEnabled включает или выключает автоматизацию звена.
// PUT /api/v1/automation/chain/{id}/enabled
func (h *Handler) SetChainEnabled(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid chain link id")
		return
	}

	var req SetEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if err := h.chainRepo.SetActive(r.Context(), id, req.Enabled); HandleRepoError(w, h.logger, err, "chain link not found") {
		return
	}

	h.invalidateChain(r.Context())
	Success(w, map[string]any{"id": id, "is_active": req.Enabled})
}

// ReorderChain переупорядочивает звенья цепочки.
// PUT /api/v1/automation/chain/reorder
func (h *Handler) ReorderChain(w http.ResponseWriter, r *http.Request) {
	var req ReorderChainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		BadRequest(w, "ids list is empty")
		return
	}

	if err := h.chainRepo.Reorder(r.Context(), req.IDs); HandleRepoError(w, h.logger, err, "chain link not found") {
		return
	}

	h.invalidateChain(r.Context())

	links, err := h.chainRepo.List(r.Context())
	if HandleRepoError(w, h.logger, err, "") {
		return
	}
	List(w, links, len(links))
}
