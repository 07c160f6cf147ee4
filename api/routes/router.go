package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/parcelflow-backend/api/controllers"
	"github.com/angelmondragon/parcelflow-backend/api/middleware"
	"github.com/angelmondragon/parcelflow-backend/internal/notifications"
	"github.com/angelmondragon/parcelflow-backend/internal/preferences"
	"github.com/angelmondragon/parcelflow-backend/internal/shipments"
	"github.com/angelmondragon/parcelflow-backend/internal/statussync"
	"github.com/angelmondragon/parcelflow-backend/pkg/config"
	"github.com/angelmondragon/parcelflow-backend/pkg/db"
	"github.com/angelmondragon/parcelflow-backend/pkg/econt"
	"github.com/angelmondragon/parcelflow-backend/pkg/logger"
	"github.com/angelmondragon/parcelflow-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	econtClient *econt.Client,
	preferencesService preferences.Service,
	shipmentsService shipments.Service,
	statusSyncService statussync.Service,
	notificationsService notifications.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.AdminAPI, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/locations", func(r chi.Router) {
			r.Get("/cities", controllers.LocationCities(econtClient, logg))
			r.Get("/offices", controllers.LocationOffices(econtClient, logg))
			r.Get("/streets", controllers.LocationStreets(econtClient, logg))
		})

		r.Route("/carts/{cartId}", func(r chi.Router) {
			r.Put("/delivery", controllers.SaveDeliveryPreference(preferencesService, logg))
			r.Get("/delivery", controllers.GetDeliveryPreference(preferencesService, logg))
			r.Get("/delivery/cost", controllers.CalculateDeliveryCost(preferencesService, logg))
			r.Get("/shipment", controllers.GetCartShipment(shipmentsService, logg))
		})

		r.Route("/shipments", func(r chi.Router) {
			r.Post("/", controllers.CreateShipment(shipmentsService, logg))
			r.Get("/", controllers.ListShipments(shipmentsService, logg))
			r.Post("/sync", controllers.BatchSyncShipments(statusSyncService, logg))
			r.Route("/{shipmentId}", func(r chi.Router) {
				r.Get("/", controllers.GetShipment(shipmentsService, logg))
				r.Post("/register", controllers.RegisterShipment(shipmentsService, logg))
				r.Post("/cancel", controllers.CancelShipment(shipmentsService, logg))
				r.Post("/sync", controllers.SyncShipment(statusSyncService, logg))
				r.Get("/notifications", controllers.ListShipmentNotifications(notificationsService, logg))
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
		})
	})

	return r
}
