package providers

import (
	"net/http"
	"seatcheck/internal/structures"

	"github.com/go-chi/chi/v5"
)

type RouterProviderInterface interface {
	Get(url string, handler http.Handler)
	Post(url string, handler http.Handler)
	GetRoutes() []structures.Route
	Mount(r chi.Router)
}

type RouterProvider struct {
	routes []structures.Route
}

func (rp *RouterProvider) Get(url string, handler http.Handler) {
	rp.add(http.MethodGet, url, handler)
}

func (rp *RouterProvider) Post(url string, handler http.Handler) {
	rp.add(http.MethodPost, url, handler)
}

func (rp *RouterProvider) GetRoutes() []structures.Route {
	return rp.routes
}

// Mount registers every collected route on r. chi answers 405 for a known
// path requested with another method.
func (rp *RouterProvider) Mount(r chi.Router) {
	for _, route := range rp.routes {
		r.Method(route.Method, route.Url, route.Handler)
	}
}

func (rp *RouterProvider) add(method, url string, handler http.Handler) {
	rp.routes = append(rp.routes, structures.Route{
		Url:     url,
		Method:  method,
		Handler: handler,
	})
}

func NewRouterProvider() RouterProviderInterface {
	return &RouterProvider{}
}
