package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/loyalty-platform/internal/model"
)

type campaignStatusRequest struct {
	Status model.CampaignStatus `json:"status"`
}

// UpdateCampaignStatus устанавливает статус кампании.
func (h *Handler) UpdateCampaignStatus(w http.ResponseWriter, r *http.Request) {
	tid, ok := tenantID(w, r)
	if !ok {
		return
	}

	var req campaignStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.UpdateCampaignStatus(r.Context(), tid, id, req.Status); err != nil {
		h.writeError(w, "update campaign status", err)
		return
	}

	campaign, err := h.service.GetCampaign(r.Context(), tid, id)
	if err != nil {
		h.writeError(w, "get campaign", err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

type markSentRequest struct {
	SentAt *time.Time `json:"sent_at"`
}

// MarkPushNotificationSent фиксирует отправку уведомления. Тело запроса необязательно.
func (h *Handler) MarkPushNotificationSent(w http.ResponseWriter, r *http.Request) {
	tid, ok := tenantID(w, r)
	if !ok {
		return
	}

	var req markSentRequest
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeErrorMessage(w, http.StatusBadRequest, "malformed JSON body: "+err.Error())
		return
	}

	var sentAt time.Time
	if req.SentAt != nil {
		sentAt = *req.SentAt
	}

	n, err := h.service.MarkPushNotificationSent(r.Context(), tid, chi.URLParam(r, "id"), sentAt)
	if err != nil {
		h.writeError(w, "mark push notification sent", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

type voucherStateRequest struct {
	State        model.VoucherState `json:"state"`
	RedemptionID *string            `json:"redemption_id"`
}

// UpdateVoucherState устанавливает состояние ваучера.
func (h *Handler) UpdateVoucherState(w http.ResponseWriter, r *http.Request) {
	tid, ok := tenantID(w, r)
	if !ok {
		return
	}

	var req voucherStateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.UpdateVoucherState(r.Context(), tid, id, req.State, req.RedemptionID); err != nil {
		h.writeError(w, "update voucher state", err)
		return
	}

	v, err := h.service.GetVoucher(r.Context(), tid, id)
	if err != nil {
		h.writeError(w, "get voucher", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type redemptionRequest struct {
	model.Redemption
	VoucherState model.VoucherState `json:"voucher_state,omitempty"`
}

// CreateRedemption сохраняет погашение. Если указан voucher_id, ваучер в той же транзакции
// переводится в voucher_state (по умолчанию redeemed) и связывается с погашением.
func (h *Handler) CreateRedemption(w http.ResponseWriter, r *http.Request) {
	tid, ok := tenantID(w, r)
	if !ok {
		return
	}

	var req redemptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var (
		rd  *model.Redemption
		err error
	)
	if req.VoucherID != nil {
		rd, err = h.service.RedeemVoucher(r.Context(), tid, req.Redemption, req.VoucherState)
	} else {
		rd, err = h.service.CreateRedemption(r.Context(), tid, req.Redemption)
	}
	if err != nil {
		h.writeError(w, "create redemption", err)
		return
	}
	writeJSON(w, http.StatusCreated, rd)
}

type redemptionStatusRequest struct {
	Status model.RedemptionStatus `json:"status"`
	Reason *string                `json:"reason"`
}

// UpdateRedemptionStatus устанавливает статус погашения.
func (h *Handler) UpdateRedemptionStatus(w http.ResponseWriter, r *http.Request) {
	tid, ok := tenantID(w, r)
	if !ok {
		return
	}

	var req redemptionStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.UpdateRedemptionStatus(r.Context(), tid, id, req.Status, req.Reason); err != nil {
		h.writeError(w, "update redemption status", err)
		return
	}

	rd, err := h.service.GetRedemption(r.Context(), tid, id)
	if err != nil {
		h.writeError(w, "get redemption", err)
		return
	}
	writeJSON(w, http.StatusOK, rd)
}
