package controller

import (
	"io"
	"net/http"

	"thermopair-station/internal/modules/telemetry/repository"
	"thermopair-station/internal/station"
)

// StationHandle is the slice of station behaviour the HTTP layer needs.
// Satisfied by *station.Station; mocked in tests.
type StationHandle interface {
	GetStatus() station.Status
	History() []station.Reading
	Start()
	Stop()
	WriteCSV(w io.Writer) error
	Name() string
}

type TelemetryController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type telemetryControllerImpl struct {
	station    StationHandle
	repository repository.TelemetryRepository
	stationID  int
}

func NewTelemetryController(st StationHandle, repo repository.TelemetryRepository, stationID int) TelemetryController {
	return &telemetryControllerImpl{station: st, repository: repo, stationID: stationID}
}

func (c *telemetryControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/station/status", c.handleStatus)
	mux.HandleFunc("GET /api/station/history", c.handleHistory)
	mux.HandleFunc("GET /api/station/readings", c.handleReadings)
	mux.HandleFunc("GET /api/station/export.csv", c.handleExportCSV)
	mux.HandleFunc("POST /api/station/start", c.handleStart)
	mux.HandleFunc("POST /api/station/stop", c.handleStop)
}
