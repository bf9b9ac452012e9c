package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/raushankrgupta/fitly-tryon/utils"
)

// PreflightHeaders are the request headers browsers may send to /try-on.
const PreflightHeaders = "authorization, x-client-info, apikey, content-type"

// RouterOptions configures NewRouter.
type RouterOptions struct {
	AllowedOrigin string
	// Files serves locally stored objects under /files/ when set.
	Files http.Handler
}

// NewRouter registers every route. CORS runs ahead of authentication so
// pre-flight requests never need a token.
func NewRouter(h *Handler, opts RouterOptions) *mux.Router {
	if opts.AllowedOrigin == "" {
		opts.AllowedOrigin = "*"
	}
	cors := utils.CORSMiddleware(utils.CORSOptions{
		AllowedOrigin:  opts.AllowedOrigin,
		AllowedMethods: "POST, OPTIONS",
		AllowedHeaders: PreflightHeaders,
		MaxAge:         24 * time.Hour,
	})
	listCORS := utils.CORSMiddleware(utils.CORSOptions{
		AllowedOrigin:  opts.AllowedOrigin,
		AllowedMethods: "GET, OPTIONS",
		AllowedHeaders: PreflightHeaders,
		MaxAge:         24 * time.Hour,
	})
	protected := AuthMiddleware(h.deps.Verifier)

	r := mux.NewRouter()
	r.Use(utils.LatencyMiddleware)

	r.Handle("/try-on", cors(http.HandlerFunc(h.VirtualTryOnHandler))).Methods(http.MethodPost, http.MethodOptions)
	r.Handle("/uploads", cors(protected(http.HandlerFunc(h.UploadsHandler)))).Methods(http.MethodPost, http.MethodOptions)
	r.Handle("/garments/import", cors(protected(http.HandlerFunc(h.ImportGarmentHandler)))).Methods(http.MethodPost, http.MethodOptions)
	r.Handle("/outfits", listCORS(protected(http.HandlerFunc(h.OutfitsHandler)))).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/healthz", h.HealthHandler).Methods(http.MethodGet)

	if opts.Files != nil {
		r.PathPrefix("/files/").Handler(http.StripPrefix("/files/", opts.Files)).Methods(http.MethodGet, http.MethodHead)
	}
	return r
}
