package stream

// ClientMessage is the inbound frame a connected viewer may send.
type ClientMessage struct {
	Action  string `json:"action"`
	RFIDTag string `json:"rfid_tag,omitempty"`
}

// Client actions.
const (
	ActionGetLatest       = "get_latest"
	ActionSubscribeAnimal = "subscribe_animal"
	ActionRefresh         = "refresh"
)

// ServerMessage is the outbound frame envelope. Exactly one of the
// optional fields is populated depending on Type.
type ServerMessage struct {
	Type    string      `json:"type"`
	RFIDTag string      `json:"rfid_tag,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Server message types.
const (
	TypeInitialData           = "initial_data"
	TypeConnected             = "connected"
	TypeSensorData            = "sensor_data"
	TypeSensorUpdate          = "sensor_update"
	TypeSubscriptionConfirmed = "subscription_confirmed"
	TypeError                 = "error"
)

// ErrInvalidJSON is the error text sent for unparseable client frames.
const ErrInvalidJSON = "Invalid JSON format"
