package netx

import "net/http"

// Global Socket.IO server shared by every namespace service.
var globalServer *Socket

// SetupGlobalServer initializes the shared Socket.IO server with all namespaces
func SetupGlobalServer() {
	globalServer = new(Socket)
	globalServer.Initialize()
	globalServer.AddNamespace("/monitor")
}

// GetGlobalServer returns the shared Socket.IO server
func GetGlobalServer() *Socket {
	return globalServer
}

// GetHandler returns the HTTP handler for the shared Socket.IO server
func GetHandler() http.Handler {
	return globalServer.Handler()
}
