package telemetry

import (
	"database/sql"
	"net/http"

	"thermopair-station/internal/modules/telemetry/controller"
	"thermopair-station/internal/modules/telemetry/repository"
)

func RegisterFeature(mux *http.ServeMux, db *sql.DB, st controller.StationHandle, stationID int) repository.TelemetryRepository {
	telemetryRepository := repository.NewRepository(db)
	telemetryController := controller.NewTelemetryController(st, telemetryRepository, stationID)
	telemetryController.RegisterRoutes(mux)
	return telemetryRepository
}
