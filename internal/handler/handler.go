// Package handler содержит HTTP-обработчики API платформы лояльности.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/loyalty-platform/internal/middleware"
	"github.com/mmeshcher/loyalty-platform/internal/model"
	"github.com/mmeshcher/loyalty-platform/internal/repository"
	"github.com/mmeshcher/loyalty-platform/internal/service"
)

// Service определяет контракт слоя доступа, используемого HTTP-обработчиками.
type Service interface {
	Ping(ctx context.Context) error

	CreateTenant(ctx context.Context, name string) (*model.Tenant, error)
	GetTenant(ctx context.Context, id string) (*model.Tenant, error)

	CreateUser(ctx context.Context, tenantID string, u model.User) (*model.User, error)
	GetUser(ctx context.Context, tenantID, id string) (*model.User, error)
	ListUsers(ctx context.Context, tenantID string, page model.Page) ([]model.User, error)

	CreateProduct(ctx context.Context, tenantID string, p model.Product) (*model.Product, error)
	GetProduct(ctx context.Context, tenantID, id string) (*model.Product, error)
	GetProductBySKU(ctx context.Context, tenantID, sku string) (*model.Product, error)
	ListProducts(ctx context.Context, tenantID string, page model.Page) ([]model.Product, error)

	CreateCampaign(ctx context.Context, tenantID string, c model.Campaign) (*model.Campaign, error)
	GetCampaign(ctx context.Context, tenantID, id string) (*model.Campaign, error)
	ListCampaigns(ctx context.Context, tenantID string, page model.Page) ([]model.Campaign, error)
	UpdateCampaignStatus(ctx context.Context, tenantID, id string, status model.CampaignStatus) error

	CreateOffer(ctx context.Context, tenantID string, o model.Offer) (*model.Offer, error)
	GetOffer(ctx context.Context, tenantID, id string) (*model.Offer, error)
	ListOffers(ctx context.Context, tenantID string, page model.Page) ([]model.Offer, error)
	ListOffersByCampaign(ctx context.Context, tenantID, campaignID string) ([]model.Offer, error)

	CreatePushNotification(ctx context.Context, tenantID string, n model.PushNotification) (*model.PushNotification, error)
	GetPushNotification(ctx context.Context, tenantID, id string) (*model.PushNotification, error)
	ListPushNotifications(ctx context.Context, tenantID string, page model.Page) ([]model.PushNotification, error)
	ListPushNotificationsByCampaign(ctx context.Context, tenantID, campaignID string) ([]model.PushNotification, error)
	MarkPushNotificationSent(ctx context.Context, tenantID, id string, sentAt time.Time) (*model.PushNotification, error)

	IssueVoucher(ctx context.Context, tenantID string, v model.Voucher) (*model.Voucher, error)
	GetVoucher(ctx context.Context, tenantID, id string) (*model.Voucher, error)
	GetVoucherByCode(ctx context.Context, tenantID, code string) (*model.Voucher, error)
	ListVouchersByUser(ctx context.Context, tenantID, userID string) ([]model.Voucher, error)
	ListVouchersByOffer(ctx context.Context, tenantID, offerID string) ([]model.Voucher, error)
	UpdateVoucherState(ctx context.Context, tenantID, id string, state model.VoucherState, redemptionID *string) error

	CreateRedemption(ctx context.Context, tenantID string, rd model.Redemption) (*model.Redemption, error)
	RedeemVoucher(ctx context.Context, tenantID string, rd model.Redemption, state model.VoucherState) (*model.Redemption, error)
	GetRedemption(ctx context.Context, tenantID, id string) (*model.Redemption, error)
	GetRedemptionByVoucher(ctx context.Context, tenantID, voucherID string) (*model.Redemption, error)
	ListRedemptions(ctx context.Context, tenantID string, page model.Page) ([]model.Redemption, error)
	ListRedemptionsByOffer(ctx context.Context, tenantID, offerID string) ([]model.Redemption, error)
	ListRedemptionsByUser(ctx context.Context, tenantID, userID string) ([]model.Redemption, error)
	UpdateRedemptionStatus(ctx context.Context, tenantID, id string, status model.RedemptionStatus, reason *string) error

	RecordTransaction(ctx context.Context, tenantID string, t model.Transaction) (*model.Transaction, error)
	GetTransaction(ctx context.Context, tenantID, id string) (*model.Transaction, error)
	GetTransactionByRedemption(ctx context.Context, tenantID, redemptionID string) (*model.Transaction, error)
	ListTransactions(ctx context.Context, tenantID string, page model.Page) ([]model.Transaction, error)
	ListTransactionsByUser(ctx context.Context, tenantID, userID string) ([]model.Transaction, error)
}

// Handler реализует HTTP-обработчики API платформы лояльности.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	rateLimiter    *middleware.RateLimiter
	adminKey       string
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, limiter *middleware.RateLimiter, adminKey string) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		rateLimiter:    limiter,
		adminKey:       adminKey,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeError переводит ошибку слоя доступа в HTTP-статус.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeErrorMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrUniqueViolation):
		writeErrorMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrReferentialIntegrity):
		writeErrorMessage(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error(op+" error", zap.Error(err))
		writeErrorMessage(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "malformed JSON body: "+err.Error())
		return false
	}
	return true
}

func tenantID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.GetTenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
	}
	return id, ok
}

func parsePage(r *http.Request) (model.Page, error) {
	var page model.Page
	q := r.URL.Query()

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return page, errors.New("limit must be a non-negative integer")
		}
		page.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return page, errors.New("offset must be a non-negative integer")
		}
		page.Offset = n
	}
	return page, nil
}

// create декодирует тело запроса, сохраняет запись от имени тенанта из токена и отвечает 201.
func create[T any, R any](h *Handler, op string, save func(ctx context.Context, tenantID string, req T) (*R, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}

		var req T
		if !decodeJSON(w, r, &req) {
			return
		}

		rec, err := save(r.Context(), tid, req)
		if err != nil {
			h.writeError(w, op, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	}
}

// get возвращает одну запись по параметру маршрута param.
func get[R any](h *Handler, op, param string, fetch func(ctx context.Context, tenantID, key string) (*R, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}

		rec, err := fetch(r.Context(), tid, chi.URLParam(r, param))
		if err != nil {
			h.writeError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// listPage возвращает страницу записей тенанта.
func listPage[R any](h *Handler, op string, fetch func(ctx context.Context, tenantID string, page model.Page) ([]R, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}

		page, err := parsePage(r)
		if err != nil {
			writeErrorMessage(w, http.StatusBadRequest, err.Error())
			return
		}

		items, err := fetch(r.Context(), tid, page)
		if err != nil {
			h.writeError(w, op, err)
			return
		}
		writeList(w, items)
	}
}

// listBy возвращает записи, связанные с записью из параметра маршрута {id}.
func listBy[R any](h *Handler, op string, fetch func(ctx context.Context, tenantID, parentID string) ([]R, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, ok := tenantID(w, r)
		if !ok {
			return
		}

		items, err := fetch(r.Context(), tid, chi.URLParam(r, "id"))
		if err != nil {
			h.writeError(w, op, err)
			return
		}
		writeList(w, items)
	}
}

func writeList[R any](w http.ResponseWriter, items []R) {
	if items == nil {
		items = []R{}
	}
	writeJSON(w, http.StatusOK, items)
}

// Health проверяет доступность хранилища.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.service.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		writeErrorMessage(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createTenantRequest struct {
	Name string `json:"name"`
}

type createTenantResponse struct {
	Tenant *model.Tenant `json:"tenant"`
	Token  string        `json:"token"`
}

// CreateTenant регистрирует организацию и выдаёт ей токен доступа к API.
func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tenant, err := h.service.CreateTenant(r.Context(), req.Name)
	if err != nil {
		h.writeError(w, "create tenant", err)
		return
	}

	token, err := h.authMiddleware.IssueToken(tenant.ID)
	if err != nil {
		h.writeError(w, "issue token", err)
		return
	}

	writeJSON(w, http.StatusCreated, createTenantResponse{Tenant: tenant, Token: token})
}

// GetCurrentTenant возвращает тенанта, от имени которого выполняется запрос.
func (h *Handler) GetCurrentTenant(w http.ResponseWriter, r *http.Request) {
	tid, ok := tenantID(w, r)
	if !ok {
		return
	}

	tenant, err := h.service.GetTenant(r.Context(), tid)
	if err != nil {
		h.writeError(w, "get tenant", err)
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}
