// Package sensor provides the two-channel temperature sources a station can
// poll: a Modbus RTU hardware probe and a simulated generator. Both share the
// Source contract; read failures surface as absent values plus Status state,
// never as errors to the polling loop.
package sensor

// Values holds one read attempt across both channels. A nil channel means
// that read failed.
type Values struct {
	Channel1 *float64 `json:"channel1"`
	Channel2 *float64 `json:"channel2"`
}

// Complete reports whether both channels produced a value.
func (v Values) Complete() bool {
	return v.Channel1 != nil && v.Channel2 != nil
}

// Status is the connectivity state of a source.
type Status struct {
	Connected bool   `json:"connected"`
	LastError string `json:"last_error,omitempty"`
}

// Source is a two-channel temperature source.
type Source interface {
	// ReadAll reads both channels independently. It never fails; a channel
	// that could not be read is nil in the result.
	ReadAll() Values
	// Status returns the current connectivity state.
	Status() Status
	// Disconnect releases any underlying handle. Safe to call repeatedly.
	Disconnect()
}

func ptr(v float64) *float64 { return &v }
