package types

import "time"

// ArchivedReading is one row of the durable readings archive. Unlike the
// in-memory history window it survives station restarts.
type ArchivedReading struct {
	StationID   int       `json:"station_id"`
	StationName string    `json:"station_name"`
	Time        time.Time `json:"time"`
	Channel1    float64   `json:"channel1_temperature"`
	Channel2    float64   `json:"channel2_temperature"`
	Simulated   bool      `json:"simulated"`
}
