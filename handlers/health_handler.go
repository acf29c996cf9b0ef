package handlers

import (
	"net/http"
	"runtime"
	"time"

	"lgd_site/lgd"
)

// HealthResponse reports process and dataset cache state. Status is "ok"
// once every tier is cached and "warming" before that.
type HealthResponse struct {
	Status     string           `json:"status"`
	Uptime     string           `json:"uptime"`
	Goroutines int              `json:"goroutines"`
	HeapAlloc  uint64           `json:"heap_alloc_bytes"`
	Datasets   []lgd.TierStatus `json:"datasets"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handler) HealthDetailed(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	datasets := h.store.Status()
	status := "ok"
	for _, d := range datasets {
		if !d.Cached {
			status = "warming"
			break
		}
	}

	sendJSON(w, http.StatusOK, HealthResponse{
		Status:     status,
		Uptime:     time.Since(h.startedAt).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  mem.HeapAlloc,
		Datasets:   datasets,
	})
}
