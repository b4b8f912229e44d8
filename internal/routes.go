package internal

import (
	"net/http"
	"seatcheck/internal/controllers"
	"seatcheck/internal/providers"
)

// InitRoutes registers the API. Presence routes need a caller identity,
// ratings and venue reads are anonymous.
func InitRoutes(
	presence *controllers.PresenceController,
	ratings *controllers.RatingController,
	venues *controllers.VenueController,
	identity providers.IdentityProviderInterface,
	responder *controllers.Responder,
) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()
	authed := func(h http.HandlerFunc) http.Handler {
		return providers.IdentityMiddleware(identity, responder.Error, h)
	}

	routers.Post("/checkins", authed(presence.CheckIn))
	routers.Post("/checkins/heartbeat", authed(presence.Heartbeat))
	routers.Post("/checkins/checkout", authed(presence.CheckOut))
	routers.Get("/checkins/current", authed(presence.Current))
	routers.Get("/checkins/history", authed(presence.History))

	routers.Post("/ratings", http.HandlerFunc(ratings.Submit))

	routers.Get("/venues", http.HandlerFunc(venues.List))
	routers.Get("/venues/{id}/stats", http.HandlerFunc(venues.Stats))
	routers.Get("/venues/{id}/occupancy", http.HandlerFunc(venues.Occupancy))
	routers.Get("/venues/{id}/status", http.HandlerFunc(venues.Status))
	return routers
}
