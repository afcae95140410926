package ws

const (
	// client - server
	MsgPing = "ping"

	// server - client
	MsgReady        = "ready"
	MsgPong         = "pong"
	MsgRecordStatus = "record_status"
	MsgError        = "error"
)
