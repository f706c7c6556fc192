package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerSyncRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/sync/players/{playerID}", handler.TriggerPlayerSync)
	mux.HandleFunc("GET /v1/sync/players/{playerID}/status", handler.GetPlayerSyncStatus)
}

func registerOpsRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/quota", handler.GetQuota)
	mux.HandleFunc("GET /v1/batches", handler.ListBatchReports)
	mux.HandleFunc("GET /v1/cache/stats", handler.GetCacheStats)
	mux.HandleFunc("GET /v1/scheduler/tiers", handler.ListSchedulerTiers)
}
