// Package station owns the lifecycle of one temperature detection station:
// a background polling loop over a sensor source, a bounded in-memory
// history, the abnormality signal derived from the channel difference, and
// CSV serialization of the retained history.
package station

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"thermopair-station/internal/sensor"
)

// DefaultHistoryLimit caps the in-memory history; the oldest reading is
// evicted first once the cap is exceeded.
const DefaultHistoryLimit = 100

const stopJoinTimeout = time.Second

// Reading is one retained poll result. Immutable once appended. Simulated
// marks readings produced by the fallback generator while hardware was
// failing, so history keeps provenance per entry.
type Reading struct {
	Timestamp time.Time `json:"timestamp"`
	Channel1  float64   `json:"channel1_temperature"`
	Channel2  float64   `json:"channel2_temperature"`
	Simulated bool      `json:"simulated"`
}

// Current holds the latest successfully paired temperatures; nil until the
// first complete read of a session.
type Current struct {
	Channel1 *float64 `json:"channel1"`
	Channel2 *float64 `json:"channel2"`
}

// Status is a point-in-time snapshot of the station.
type Status struct {
	StationID           int      `json:"station_id"`
	Name                string   `json:"name"`
	IsRunning           bool     `json:"is_running"`
	CurrentTemperatures Current  `json:"current_temperatures"`
	ReadingsCount       int      `json:"readings_count"`
	ThresholdDifference float64  `json:"threshold_difference"`
	CurrentDifference   *float64 `json:"current_difference"`
	IsAbnormal          bool     `json:"is_abnormal"`
	UseHardware         bool     `json:"use_hardware"`
	SensorConnected     *bool    `json:"sensor_connected"`
	SensorError         string   `json:"sensor_error,omitempty"`
}

// Abnormal reports whether the channel difference is below the threshold.
// Equality counts as normal.
func Abnormal(channel1, channel2, threshold float64) bool {
	return channel2-channel1 < threshold
}

// Options configures a Station.
type Options struct {
	ID           int
	Name         string
	Threshold    float64
	UseHardware  bool
	Source       sensor.Source
	PollInterval time.Duration
	HistoryLimit int
	// Sink, when set, receives every appended reading outside the station
	// lock. Used to wire the archive and the MQTT publisher.
	Sink   func(Reading)
	Logger *slog.Logger
}

// Station polls its source once per interval while running. All mutable
// state is guarded by mu; the lock is never held across the sensor read or
// the inter-cycle sleep.
type Station struct {
	id          int
	name        string
	threshold   float64
	useHardware bool
	source      sensor.Source
	fallback    *sensor.SimulatedSource
	interval    time.Duration
	limit       int
	logger      *slog.Logger

	mu      sync.Mutex
	sink    func(Reading)
	running bool
	current Current
	history []Reading
	stop    chan struct{}
	done    chan struct{}
}

func New(opts Options) *Station {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Station{
		id:          opts.ID,
		name:        opts.Name,
		threshold:   opts.Threshold,
		useHardware: opts.UseHardware,
		source:      opts.Source,
		fallback:    sensor.NewSimulatedSource(),
		interval:    opts.PollInterval,
		limit:       opts.HistoryLimit,
		sink:        opts.Sink,
		logger:      opts.Logger,
	}
}

func (s *Station) ID() int      { return s.id }
func (s *Station) Name() string { return s.name }

// SetSink installs the per-reading sink. Call before Start; the sink runs on
// the polling goroutine outside the station lock.
func (s *Station) SetSink(sink func(Reading)) {
	s.mu.Lock()
	s.sink = sink
	s.mu.Unlock()
}

// Start begins detection. History and current temperatures are cleared so a
// session never carries data from the previous one. No-op while running; at
// most one polling goroutine exists per station.
func (s *Station) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.history = nil
	s.current = Current{}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stop, s.done
	s.mu.Unlock()

	s.logger.Info("station started", "station_id", s.id, "name", s.name)
	go s.loop(stop, done)
}

// Stop signals the polling goroutine, waits up to a second for it to exit,
// then disconnects the source. A slow in-flight cycle may still be unwinding
// after Stop returns. Idempotent beyond the disconnect.
func (s *Station) Stop() {
	s.mu.Lock()
	var done chan struct{}
	if s.running {
		close(s.stop)
		s.running = false
		done = s.done
	}
	s.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-time.After(stopJoinTimeout):
			s.logger.Warn("polling loop slow to exit", "station_id", s.id)
		}
	}

	s.source.Disconnect()
	s.logger.Info("station stopped", "station_id", s.id)
}

func (s *Station) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		default:
		}

		s.poll()

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// poll runs one cycle: read, fail over to the generator if hardware left a
// channel absent, then record. The connection-error state survives failover
// so status never hides the hardware fault.
func (s *Station) poll() {
	vals := s.source.ReadAll()

	simulated := false
	if s.useHardware && !vals.Complete() {
		vals = s.fallback.ReadAll()
		simulated = true
		s.logger.Debug("hardware read incomplete, using simulated values",
			"station_id", s.id,
			"sensor_error", s.source.Status().LastError,
		)
	}
	if !vals.Complete() {
		return
	}

	ch1 := round2(*vals.Channel1)
	ch2 := round2(*vals.Channel2)
	r := Reading{
		Timestamp: time.Now(),
		Channel1:  ch1,
		Channel2:  ch2,
		Simulated: simulated,
	}

	s.mu.Lock()
	s.current = Current{Channel1: &ch1, Channel2: &ch2}
	s.history = append(s.history, r)
	if len(s.history) > s.limit {
		s.history = s.history[1:]
	}
	sink := s.sink
	s.mu.Unlock()

	if sink != nil {
		sink(r)
	}
}

// History returns a copy of the retained readings in insertion order.
func (s *Station) History() []Reading {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Reading, len(s.history))
	copy(out, s.history)
	return out
}

// CurrentTemperatures returns the latest paired reading, if any.
func (s *Station) CurrentTemperatures() Current {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// GetStatus returns a consistent snapshot of the station. Sensor
// connectivity is only reported for hardware-backed stations.
func (s *Station) GetStatus() Status {
	s.mu.Lock()
	st := Status{
		StationID:           s.id,
		Name:                s.name,
		IsRunning:           s.running,
		CurrentTemperatures: s.current,
		ReadingsCount:       len(s.history),
		ThresholdDifference: s.threshold,
		UseHardware:         s.useHardware,
	}
	s.mu.Unlock()

	if st.CurrentTemperatures.Channel1 != nil && st.CurrentTemperatures.Channel2 != nil {
		diff := *st.CurrentTemperatures.Channel2 - *st.CurrentTemperatures.Channel1
		st.CurrentDifference = &diff
		st.IsAbnormal = Abnormal(*st.CurrentTemperatures.Channel1, *st.CurrentTemperatures.Channel2, s.threshold)
	}

	if s.useHardware {
		sensorStatus := s.source.Status()
		st.SensorConnected = &sensorStatus.Connected
		st.SensorError = sensorStatus.LastError
	}

	return st
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
