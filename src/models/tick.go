package models

// MTick is one synthetic price observation broadcast to feed clients.
type MTick struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Timestamp int64   `json:"timestamp"` // unix milliseconds
}

// MControlMessage is the client->server feed message.
// Only {"type":"change_symbol"} is recognized; anything else is dropped.
type MControlMessage struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
}
