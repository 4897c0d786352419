package routes

import (
	"net/http"

	"github.com/zatekoja/breadfindr/backend/internal/api/handlers"
	"github.com/zatekoja/breadfindr/backend/internal/api/middleware"
	"github.com/zatekoja/breadfindr/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	bakeryHandler   *handlers.BakeryHandler
	placesHandler   *handlers.PlacesHandler
	discoverHandler *handlers.DiscoverHandler
	geocodeHandler  *handlers.GeocodeHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router. discoverHandler, geocodeHandler and
// cacheMiddleware may be nil.
func NewRouter(
	bakeryHandler *handlers.BakeryHandler,
	placesHandler *handlers.PlacesHandler,
	discoverHandler *handlers.DiscoverHandler,
	geocodeHandler *handlers.GeocodeHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		bakeryHandler:   bakeryHandler,
		placesHandler:   placesHandler,
		discoverHandler: discoverHandler,
		geocodeHandler:  geocodeHandler,
		cacheMiddleware: cacheMiddleware,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Directory
	r.mux.HandleFunc("GET /api/bakeries", r.bakeryHandler.List)
	r.mux.HandleFunc("GET /api/bakeries/search", r.bakeryHandler.SearchByLocation)
	r.mux.HandleFunc("POST /api/bakeries", r.bakeryHandler.Submit)
	r.mux.HandleFunc("POST /api/bakeries/discovered", r.bakeryHandler.SaveDiscovered)
	r.mux.HandleFunc("GET /api/bakeries/{id}/reviews", r.bakeryHandler.ListReviews)
	r.mux.HandleFunc("POST /api/bakeries/{id}/reviews", r.bakeryHandler.SubmitReview)

	// Places proxy. Registered without a method so non-GET requests get
	// the JSON 405 from the handler.
	r.mux.HandleFunc("/api/places/search", r.placesHandler.Search)
	r.mux.HandleFunc("/api/places/find", r.placesHandler.Find)
	r.mux.HandleFunc("GET /api/places/photo", r.placesHandler.Photo)

	if r.discoverHandler != nil {
		r.mux.HandleFunc("GET /api/discover", r.discoverHandler.Discover)
		r.mux.HandleFunc("GET /api/discover/{placeId}", r.discoverHandler.PlaceDetails)
	}

	if r.geocodeHandler != nil {
		r.mux.HandleFunc("GET /api/geocode", r.geocodeHandler.Geocode)
		r.mux.HandleFunc("GET /api/geocode/reverse", r.geocodeHandler.ReverseGeocode)
	}

	// Middleware is applied inside out. CORS stays outermost so cached
	// responses carry its headers too.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
