package web

import (
	"net/http"

	"sysmon/internal/metrics"
	"sysmon/internal/netx"
)

// DataPayload is the flat JSON contract served on /data. Absent GPUs
// are reported as 0 here: the wire format keeps the original page
// contract and deliberately gives up the internal unavailable-vs-zero
// distinction.
type DataPayload struct {
	CPUUsage         float64 `json:"cpu_usage"`
	CPUFreq          float64 `json:"cpu_freq"`
	RAMUsed          float64 `json:"ram_used"`
	RAMTotal         float64 `json:"ram_total"`
	RAMPercent       float64 `json:"ram_percent"`
	GPUIntelUsage    float64 `json:"gpu_intel_usage"`
	GPUNvidiaUsage   float64 `json:"gpu_nvidia_usage"`
	GPUNvidiaMemUsed float64 `json:"gpu_nvidia_mem_used"`
	GPUNvidiaMemTot  float64 `json:"gpu_nvidia_mem_total"`
	GPUNvidiaTemp    float64 `json:"gpu_nvidia_temp"`
}

// PayloadFrom flattens a snapshot into the wire contract.
func PayloadFrom(snap *metrics.Snapshot) DataPayload {
	p := DataPayload{
		CPUUsage:   snap.CPU.UsagePercent,
		CPUFreq:    snap.CPU.FrequencyMHz,
		RAMUsed:    snap.Memory.UsedGB,
		RAMTotal:   snap.Memory.TotalGB,
		RAMPercent: snap.Memory.UsagePercent,
	}
	if snap.Intel != nil {
		p.GPUIntelUsage = snap.Intel.UsagePercent
	}
	if snap.Nvidia != nil {
		p.GPUNvidiaUsage = snap.Nvidia.UsagePercent
		p.GPUNvidiaMemUsed = snap.Nvidia.MemUsedGB
		p.GPUNvidiaMemTot = snap.Nvidia.MemTotalGB
		p.GPUNvidiaTemp = snap.Nvidia.TemperatureC
	}
	return p
}

// StartData registers the /data route with the given mux
func StartData(mux *http.ServeMux, store *metrics.Store) {
	mux.HandleFunc("/data", handleData(store))
}

// handleData serves the latest snapshot as JSON. Reads only the store;
// no sampling happens on the request path.
func handleData(store *metrics.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			netx.WriteMethodNotAllowed(w)
			return
		}
		netx.WriteJSON(w, http.StatusOK, PayloadFrom(store.Read()))
	}
}
