package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	custommiddleware "github.com/mmeshcher/loyalty-platform/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware платформы лояльности.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(custommiddleware.Tracing)
	r.Use(custommiddleware.Metrics)
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.With(custommiddleware.AdminKey(h.adminKey)).Post("/tenants", h.CreateTenant)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)
			if h.rateLimiter != nil {
				r.Use(h.rateLimiter.Middleware)
			}

			r.Get("/tenant", h.GetCurrentTenant)

			r.Route("/users", func(r chi.Router) {
				r.Post("/", create(h, "create user", h.service.CreateUser))
				r.Get("/", listPage(h, "list users", h.service.ListUsers))
				r.Get("/{id}", get(h, "get user", "id", h.service.GetUser))
				r.Get("/{id}/vouchers", listBy(h, "list user vouchers", h.service.ListVouchersByUser))
				r.Get("/{id}/redemptions", listBy(h, "list user redemptions", h.service.ListRedemptionsByUser))
				r.Get("/{id}/transactions", listBy(h, "list user transactions", h.service.ListTransactionsByUser))
			})

			r.Route("/products", func(r chi.Router) {
				r.Post("/", create(h, "create product", h.service.CreateProduct))
				r.Get("/", listPage(h, "list products", h.service.ListProducts))
				r.Get("/{id}", get(h, "get product", "id", h.service.GetProduct))
				r.Get("/sku/{sku}", get(h, "get product by sku", "sku", h.service.GetProductBySKU))
			})

			r.Route("/campaigns", func(r chi.Router) {
				r.Post("/", create(h, "create campaign", h.service.CreateCampaign))
				r.Get("/", listPage(h, "list campaigns", h.service.ListCampaigns))
				r.Get("/{id}", get(h, "get campaign", "id", h.service.GetCampaign))
				r.Put("/{id}/status", h.UpdateCampaignStatus)
				r.Get("/{id}/offers", listBy(h, "list campaign offers", h.service.ListOffersByCampaign))
				r.Get("/{id}/notifications", listBy(h, "list campaign notifications", h.service.ListPushNotificationsByCampaign))
			})

			r.Route("/offers", func(r chi.Router) {
				r.Post("/", create(h, "create offer", h.service.CreateOffer))
				r.Get("/", listPage(h, "list offers", h.service.ListOffers))
				r.Get("/{id}", get(h, "get offer", "id", h.service.GetOffer))
				r.Get("/{id}/vouchers", listBy(h, "list offer vouchers", h.service.ListVouchersByOffer))
				r.Get("/{id}/redemptions", listBy(h, "list offer redemptions", h.service.ListRedemptionsByOffer))
			})

			r.Route("/vouchers", func(r chi.Router) {
				r.Post("/", create(h, "issue voucher", h.service.IssueVoucher))
				r.Get("/{id}", get(h, "get voucher", "id", h.service.GetVoucher))
				r.Get("/code/{code}", get(h, "get voucher by code", "code", h.service.GetVoucherByCode))
				r.Put("/{id}/state", h.UpdateVoucherState)
				r.Get("/{id}/redemption", get(h, "get voucher redemption", "id", h.service.GetRedemptionByVoucher))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Post("/", create(h, "create push notification", h.service.CreatePushNotification))
				r.Get("/", listPage(h, "list push notifications", h.service.ListPushNotifications))
				r.Get("/{id}", get(h, "get push notification", "id", h.service.GetPushNotification))
				r.Post("/{id}/sent", h.MarkPushNotificationSent)
			})

			r.Route("/redemptions", func(r chi.Router) {
				r.Post("/", h.CreateRedemption)
				r.Get("/", listPage(h, "list redemptions", h.service.ListRedemptions))
				r.Get("/{id}", get(h, "get redemption", "id", h.service.GetRedemption))
				r.Put("/{id}/status", h.UpdateRedemptionStatus)
				r.Get("/{id}/transaction", get(h, "get redemption transaction", "id", h.service.GetTransactionByRedemption))
			})

			r.Route("/transactions", func(r chi.Router) {
				r.Post("/", create(h, "record transaction", h.service.RecordTransaction))
				r.Get("/", listPage(h, "list transactions", h.service.ListTransactions))
				r.Get("/{id}", get(h, "get transaction", "id", h.service.GetTransaction))
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorMessage(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErrorMessage(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	return r
}
