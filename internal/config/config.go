package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	// Station identity and behaviour.
	StationID           int
	StationName         string
	ThresholdDifference float64
	PollInterval        time.Duration
	HistoryLimit        int

	// Sensor source. When UseHardware is false the station runs entirely on
	// the simulated generator.
	UseHardware   bool
	SerialPort    string
	SlaveAddress  byte
	BaudRate      int
	SerialTimeout time.Duration

	// SQLite archive.
	SQLiteDriver          string
	SQLiteDSN             string
	SQLitePath            string
	SQLiteMaxOpenConns    int
	SQLiteMaxIdleConns    int
	SQLiteConnMaxLifetime time.Duration

	// Optional MQTT telemetry publisher.
	MQTTEnabled  bool
	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	httpAddr := strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	stationIDStr := strings.TrimSpace(os.Getenv("STATION_ID"))
	if stationIDStr == "" {
		stationIDStr = "1"
	}
	stationID, err := strconv.Atoi(stationIDStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid STATION_ID %q: %w", stationIDStr, err)
	}

	stationName := strings.TrimSpace(os.Getenv("STATION_NAME"))
	if stationName == "" {
		stationName = "Station 1"
	}

	thresholdStr := strings.TrimSpace(os.Getenv("THRESHOLD_DIFFERENCE"))
	if thresholdStr == "" {
		thresholdStr = "10.0"
	}
	threshold, err := strconv.ParseFloat(thresholdStr, 64)
	if err != nil {
		return Config{}, fmt.Errorf("invalid THRESHOLD_DIFFERENCE %q: %w", thresholdStr, err)
	}

	pollIntervalStr := strings.TrimSpace(os.Getenv("POLL_INTERVAL"))
	if pollIntervalStr == "" {
		pollIntervalStr = "1s"
	}
	pollInterval, err := time.ParseDuration(pollIntervalStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid POLL_INTERVAL %q: %w", pollIntervalStr, err)
	}
	if pollInterval <= 0 {
		return Config{}, fmt.Errorf("POLL_INTERVAL must be positive, got %v", pollInterval)
	}

	historyLimitStr := strings.TrimSpace(os.Getenv("HISTORY_LIMIT"))
	if historyLimitStr == "" {
		historyLimitStr = "100"
	}
	historyLimit, err := strconv.Atoi(historyLimitStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid HISTORY_LIMIT %q: %w", historyLimitStr, err)
	}
	if historyLimit <= 0 {
		return Config{}, fmt.Errorf("HISTORY_LIMIT must be positive, got %d", historyLimit)
	}

	useHardware, err := parseBool("USE_HARDWARE", "false")
	if err != nil {
		return Config{}, err
	}

	serialPort := strings.TrimSpace(os.Getenv("SERIAL_PORT"))
	if serialPort == "" {
		serialPort = "/dev/ttyUSB0"
	}

	slaveAddressStr := strings.TrimSpace(os.Getenv("SLAVE_ADDRESS"))
	if slaveAddressStr == "" {
		slaveAddressStr = "1"
	}
	slaveAddress, err := strconv.ParseUint(slaveAddressStr, 0, 8)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SLAVE_ADDRESS %q: %w", slaveAddressStr, err)
	}

	baudRateStr := strings.TrimSpace(os.Getenv("BAUD_RATE"))
	if baudRateStr == "" {
		baudRateStr = "9600"
	}
	baudRate, err := strconv.Atoi(baudRateStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid BAUD_RATE %q: %w", baudRateStr, err)
	}

	serialTimeoutStr := strings.TrimSpace(os.Getenv("SERIAL_TIMEOUT"))
	if serialTimeoutStr == "" {
		serialTimeoutStr = "1s"
	}
	serialTimeout, err := time.ParseDuration(serialTimeoutStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SERIAL_TIMEOUT %q: %w", serialTimeoutStr, err)
	}

	driver := strings.TrimSpace(os.Getenv("DB_DRIVER"))
	if driver == "" {
		driver = "sqlite3"
	}
	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	path := strings.TrimSpace(os.Getenv("SQLITE_PATH"))
	if path == "" {
		path = "data/thermopair.db"
	}

	maxOpenConnsStr := strings.TrimSpace(os.Getenv("DB_MAX_OPEN_CONNS"))
	if maxOpenConnsStr == "" {
		maxOpenConnsStr = "1"
	}
	maxOpenConns, err := strconv.Atoi(maxOpenConnsStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_MAX_OPEN_CONNS %q: %w", maxOpenConnsStr, err)
	}

	maxIdleConnsStr := strings.TrimSpace(os.Getenv("DB_MAX_IDLE_CONNS"))
	if maxIdleConnsStr == "" {
		maxIdleConnsStr = "1"
	}
	maxIdleConns, err := strconv.Atoi(maxIdleConnsStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_MAX_IDLE_CONNS %q: %w", maxIdleConnsStr, err)
	}

	connMaxLifetimeStr := strings.TrimSpace(os.Getenv("DB_CONN_MAX_LIFETIME"))
	if connMaxLifetimeStr == "" {
		connMaxLifetimeStr = "0s"
	}
	connMaxLifetime, err := time.ParseDuration(connMaxLifetimeStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME %q: %w", connMaxLifetimeStr, err)
	}

	mqttEnabled, err := parseBool("MQTT_ENABLED", "false")
	if err != nil {
		return Config{}, err
	}

	mqttBroker := strings.TrimSpace(os.Getenv("MQTT_BROKER"))
	if mqttBroker == "" {
		mqttBroker = "localhost"
	}

	mqttPortStr := strings.TrimSpace(os.Getenv("MQTT_PORT"))
	if mqttPortStr == "" {
		mqttPortStr = "1883"
	}
	mqttPort, err := strconv.Atoi(mqttPortStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %q: %w", mqttPortStr, err)
	}

	mqttClientID := strings.TrimSpace(os.Getenv("MQTT_CLIENT_ID"))
	if mqttClientID == "" {
		mqttClientID = "thermopair-station"
	}

	return Config{
		AppEnv:                appEnv,
		LogLevel:              level,
		HTTPAddr:              httpAddr,
		StationID:             stationID,
		StationName:           stationName,
		ThresholdDifference:   threshold,
		PollInterval:          pollInterval,
		HistoryLimit:          historyLimit,
		UseHardware:           useHardware,
		SerialPort:            serialPort,
		SlaveAddress:          byte(slaveAddress),
		BaudRate:              baudRate,
		SerialTimeout:         serialTimeout,
		SQLiteDriver:          driver,
		SQLiteDSN:             dsn,
		SQLitePath:            path,
		SQLiteMaxOpenConns:    maxOpenConns,
		SQLiteMaxIdleConns:    maxIdleConns,
		SQLiteConnMaxLifetime: connMaxLifetime,
		MQTTEnabled:           mqttEnabled,
		MQTTBroker:            mqttBroker,
		MQTTPort:              mqttPort,
		MQTTClientID:          mqttClientID,
	}, nil
}

func parseBool(key, def string) (bool, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		s = def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return v, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
