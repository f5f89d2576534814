package sensor

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// ModbusConfig configures the RTU connection to the temperature probe.
type ModbusConfig struct {
	Port         string
	SlaveAddress byte
	BaudRate     int
	Timeout      time.Duration
}

// ModbusSource reads temperatures from a two-channel Modbus RTU probe.
// Channel n maps to holding register n-1; registers hold signed tenths of a
// degree Celsius. The serial handle is opened lazily on the first read and
// re-opened after any failure.
type ModbusSource struct {
	cfg    ModbusConfig
	logger *slog.Logger

	mu        sync.Mutex
	handler   *modbus.RTUClientHandler
	client    modbus.Client
	connected bool
	lastError string
}

// NewModbusSource creates a hardware source. No I/O happens until the first
// read. If logger is nil, slog.Default() is used.
func NewModbusSource(cfg ModbusConfig, logger *slog.Logger) *ModbusSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &ModbusSource{cfg: cfg, logger: logger}
}

// connectLocked opens the serial handle. Caller holds mu.
func (s *ModbusSource) connectLocked() error {
	h := modbus.NewRTUClientHandler(s.cfg.Port)
	h.BaudRate = s.cfg.BaudRate
	h.DataBits = 8
	h.Parity = "N"
	h.StopBits = 1
	h.SlaveId = s.cfg.SlaveAddress
	h.Timeout = s.cfg.Timeout

	if err := h.Connect(); err != nil {
		s.connected = false
		s.lastError = err.Error()
		s.logger.Error("sensor connect failed", "port", s.cfg.Port, "error", err)
		return fmt.Errorf("connect %s: %w", s.cfg.Port, err)
	}

	s.handler = h
	s.client = modbus.NewClient(h)
	s.connected = true
	s.lastError = ""
	s.logger.Info("sensor connected", "port", s.cfg.Port, "slave", s.cfg.SlaveAddress)
	return nil
}

// ReadChannel reads one channel. On any failure the source is marked
// disconnected so the next read reconnects.
func (s *ModbusSource) ReadChannel(channel int) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected || s.client == nil {
		if err := s.connectLocked(); err != nil {
			return 0, err
		}
	}

	register := uint16(channel - 1)
	raw, err := s.client.ReadHoldingRegisters(register, 1)
	if err != nil {
		s.connected = false
		s.lastError = err.Error()
		s.logger.Error("sensor read failed", "channel", channel, "register", register, "error", err)
		return 0, fmt.Errorf("read channel %d: %w", channel, err)
	}
	if len(raw) < 2 {
		s.connected = false
		s.lastError = fmt.Sprintf("short register read: %d bytes", len(raw))
		return 0, fmt.Errorf("read channel %d: short response", channel)
	}

	// Signed, one decimal of precision.
	value := int16(binary.BigEndian.Uint16(raw))
	s.lastError = ""
	return float64(value) / 10.0, nil
}

func (s *ModbusSource) ReadAll() Values {
	var out Values
	if v, err := s.ReadChannel(1); err == nil {
		out.Channel1 = ptr(v)
	}
	if v, err := s.ReadChannel(2); err == nil {
		out.Channel2 = ptr(v)
	}
	return out
}

func (s *ModbusSource) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{Connected: s.connected, LastError: s.lastError}
}

// Disconnect closes the serial handle. Close failures are swallowed; the
// source is left disconnected either way.
func (s *ModbusSource) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handler != nil {
		if err := s.handler.Close(); err != nil {
			s.logger.Debug("sensor close", "error", err)
		}
		s.handler = nil
		s.client = nil
	}
	s.connected = false
}
