package controller

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"thermopair-station/internal/station"
	"thermopair-station/internal/utils"
)

func (c *telemetryControllerImpl) handleStatus(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, c.station.GetStatus())
}

func (c *telemetryControllerImpl) handleHistory(w http.ResponseWriter, r *http.Request) {
	history := c.station.History()
	if history == nil {
		history = []station.Reading{}
	}
	utils.WriteJSON(w, http.StatusOK, history)
}

func (c *telemetryControllerImpl) handleReadings(w http.ResponseWriter, r *http.Request) {
	from, to, limit, err := parseReadingsQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	readings, err := c.repository.GetReadings(c.stationID, from, to, limit)
	if err != nil {
		slog.Error("readings query failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load readings")
		return
	}
	utils.WriteJSON(w, http.StatusOK, readings)
}

func (c *telemetryControllerImpl) handleStart(w http.ResponseWriter, r *http.Request) {
	c.station.Start()
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "running"})
}

func (c *telemetryControllerImpl) handleStop(w http.ResponseWriter, r *http.Request) {
	c.station.Stop()
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

// handleExportCSV streams the retained history as a CSV attachment. The
// export is buffered first so a serialization failure can still produce a
// clean 500 instead of a truncated download.
func (c *telemetryControllerImpl) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := c.station.WriteCSV(&buf); err != nil {
		slog.Error("csv export failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to export history")
		return
	}

	filename := fmt.Sprintf("temperature_data_%s.csv", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("csv export: write response failed", "error", err)
	}
}
