package models

// AnalogRequest asks the plant node for a single ADC conversion
type AnalogRequest struct {
	RequestID string `json:"request_id"`
	Channel   int    `json:"channel"`
}

// AnalogResponse is the plant node's answer to an AnalogRequest
type AnalogResponse struct {
	RequestID string `json:"request_id"`
	Channel   int    `json:"channel"`
	Value     int    `json:"value"`
	Error     string `json:"error,omitempty"` // set when the conversion failed on the node
}

// RelayCommand switches the water relay on the plant node
type RelayCommand struct {
	On bool `json:"on"`
}

// ServoCommand sets the shade servo duty on the plant node
type ServoCommand struct {
	Duty int `json:"duty"` // pulse width in microseconds
}
