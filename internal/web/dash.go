package web

import (
	"strconv"
	"sync"
	"time"

	"sysmon/internal/metrics"
	"sysmon/internal/netx"

	"github.com/spf13/cast"
	"github.com/zishang520/socket.io/servers/socket/v3"
)

// MonitorSession represents one connected live-monitor client. Each
// session pushes snapshots from the store at its own refresh rate; the
// sampling loop itself is shared and never influenced by sessions.
type MonitorSession struct {
	Socket      *socket.Socket
	RefreshRate time.Duration
	ticker      *time.Ticker
	cancelFunc  func() // Function to cancel current goroutine
	mutex       sync.Mutex
	active      bool
}

// MonitorSessionManager manages the connected live-monitor sessions
type MonitorSessionManager struct {
	sessions map[string]*MonitorSession
	mutex    sync.RWMutex
}

var monitorManager = &MonitorSessionManager{
	sessions: make(map[string]*MonitorSession),
}

const defaultPushRate = 2 * time.Second

// monitorStore is the snapshot store the namespace reads from, set once
// during service setup before any client can connect.
var monitorStore *metrics.Store

// monitorInfo is the static identity pushed once per connection.
var monitorInfo PageInfo

// SetupMonitorService sets up the /monitor socket.io namespace on the
// global server. Clients get the static identity on connect, then a
// snapshot push per refresh period.
func SetupMonitorService(store *metrics.Store, info PageInfo) {
	monitorStore = store
	monitorInfo = info

	server := netx.GetGlobalServer()
	ns := server.GetNamespace("/monitor")

	ns.AddEvent("connect_monitor", handleMonitorConnect)
	ns.AddEvent("set_refresh_rate", handleSetRefreshRate)
	ns.AddEvent("refresh_data", handleRefreshData)
	ns.AddEvent("disconnect", handleMonitorDisconnect)

	ns.RegisterEvents()
}

// handleMonitorConnect handles monitor connection requests
func handleMonitorConnect(client *socket.Socket, data ...any) {
	session := &MonitorSession{
		Socket:      client,
		RefreshRate: defaultPushRate,
		active:      true,
	}

	monitorManager.mutex.Lock()
	monitorManager.sessions[string(client.Id())] = session
	monitorManager.mutex.Unlock()

	// Static identity once, then the first snapshot right away.
	client.Emit("system_info", monitorInfo)
	sendSnapshot(client)

	startPeriodicUpdates(session)

	client.Emit("monitor_connected", map[string]interface{}{
		"refresh_rate": "2s",
		"status":       "connected",
	})
}

// handleSetRefreshRate handles refresh rate changes ("OFF", "2s", "10s")
func handleSetRefreshRate(client *socket.Socket, data ...any) {
	if len(data) == 0 {
		client.Emit("monitor_error", "No refresh rate data provided")
		return
	}

	// Payloads arrive loosely typed, sometimes nested one level deep.
	var rateStr string
	for _, raw := range cast.ToSlice(data[0]) {
		if m := cast.ToStringMapString(raw); m["rate"] != "" {
			rateStr = m["rate"]
			break
		}
	}
	if rateStr == "" {
		if m := cast.ToStringMapString(data[0]); m["rate"] != "" {
			rateStr = m["rate"]
		}
	}
	if rateStr == "" {
		client.Emit("monitor_error", "Refresh rate is required")
		return
	}

	monitorManager.mutex.RLock()
	session, exists := monitorManager.sessions[string(client.Id())]
	monitorManager.mutex.RUnlock()

	if !exists || !session.active {
		client.Emit("monitor_error", "No active monitor session")
		return
	}

	var newRate time.Duration
	if rateStr == "OFF" {
		newRate = 0
	} else if len(rateStr) > 1 && rateStr[len(rateStr)-1] == 's' {
		seconds, parseErr := strconv.Atoi(rateStr[:len(rateStr)-1])
		if parseErr != nil || seconds < 1 {
			client.Emit("monitor_error", "Invalid refresh rate format")
			return
		}
		newRate = time.Duration(seconds) * time.Second
	} else {
		client.Emit("monitor_error", "Invalid refresh rate format")
		return
	}

	session.mutex.Lock()
	if session.ticker != nil {
		session.ticker.Stop()
		session.ticker = nil
	}
	if session.cancelFunc != nil {
		session.cancelFunc()
		session.cancelFunc = nil
	}
	session.RefreshRate = newRate
	session.mutex.Unlock()

	if newRate > 0 {
		startPeriodicUpdates(session)
	}

	client.Emit("refresh_rate_updated", map[string]interface{}{
		"rate": rateStr,
	})
}

// handleRefreshData handles manual refresh requests
func handleRefreshData(client *socket.Socket, data ...any) {
	sendSnapshot(client)
}

// handleMonitorDisconnect handles monitor disconnection
func handleMonitorDisconnect(client *socket.Socket, data ...any) {
	cleanupMonitorSession(string(client.Id()))
}

// startPeriodicUpdates starts pushing snapshots on the session's ticker
func startPeriodicUpdates(session *MonitorSession) {
	if session.RefreshRate <= 0 {
		return
	}

	session.mutex.Lock()
	if session.ticker != nil {
		session.ticker.Stop()
	}
	if session.cancelFunc != nil {
		session.cancelFunc()
	}

	ticker := time.NewTicker(session.RefreshRate)
	session.ticker = ticker

	done := make(chan struct{})
	session.cancelFunc = func() {
		close(done)
	}
	session.mutex.Unlock()

	go func() {
		defer func() {
			ticker.Stop()
			session.mutex.Lock()
			// Ticker identity tells this goroutine's generation apart
			// from a replacement started after a rate change; only the
			// current generation may clear the session's cancel hook.
			if session.ticker == ticker {
				session.ticker = nil
				session.cancelFunc = nil
			}
			session.mutex.Unlock()
		}()

		for {
			select {
			case <-ticker.C:
				session.mutex.Lock()
				active := session.active
				client := session.Socket
				session.mutex.Unlock()

				if !active {
					return
				}
				if client != nil {
					sendSnapshot(client)
				}

			case <-done:
				return
			}
		}
	}()
}

// sendSnapshot pushes the latest published snapshot to the client in
// the same flat shape /data serves. Reads only the store.
func sendSnapshot(client *socket.Socket) {
	client.Emit("snapshot", PayloadFrom(monitorStore.Read()))
}

// cleanupMonitorSession cleans up a monitor session
func cleanupMonitorSession(clientId string) {
	monitorManager.mutex.Lock()
	defer monitorManager.mutex.Unlock()

	session, exists := monitorManager.sessions[clientId]
	if !exists {
		return
	}

	session.mutex.Lock()
	session.active = false
	if session.ticker != nil {
		session.ticker.Stop()
		session.ticker = nil
	}
	if session.cancelFunc != nil {
		session.cancelFunc()
		session.cancelFunc = nil
	}
	session.mutex.Unlock()

	delete(monitorManager.sessions, clientId)
}

// ActiveSessionCount returns the number of connected monitor sessions
func ActiveSessionCount() int {
	monitorManager.mutex.RLock()
	defer monitorManager.mutex.RUnlock()
	return len(monitorManager.sessions)
}
