package controller

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"thermopair-station/internal/modules/telemetry/types"
	"thermopair-station/internal/station"
)

type mockStation struct {
	status  station.Status
	history []station.Reading
	csv     string
	csvErr  error
	started int
	stopped int
}

func (m *mockStation) GetStatus() station.Status     { return m.status }
func (m *mockStation) History() []station.Reading    { return m.history }
func (m *mockStation) Start()                        { m.started++ }
func (m *mockStation) Stop()                         { m.stopped++ }
func (m *mockStation) Name() string                  { return "Mock Station" }
func (m *mockStation) WriteCSV(w io.Writer) error {
	if m.csvErr != nil {
		return m.csvErr
	}
	_, err := io.WriteString(w, m.csv)
	return err
}

type mockRepo struct {
	readings    []types.ArchivedReading
	readingsErr error
	count       int
	countErr    error
}

func (m *mockRepo) InsertReading(types.ArchivedReading) error { return nil }

func (m *mockRepo) GetReadings(stationID int, from, to time.Time, limit int) ([]types.ArchivedReading, error) {
	return m.readings, m.readingsErr
}

func (m *mockRepo) GetLatestReadings(stationID int, limit int) ([]types.ArchivedReading, error) {
	return m.readings, m.readingsErr
}

func (m *mockRepo) GetReadingsCount(stationID int, from, to time.Time) (int, error) {
	return m.count, m.countErr
}

func Test_handleStatus(t *testing.T) {
	diff := 9.99
	st := &mockStation{status: station.Status{
		StationID:           7,
		Name:                "Mock Station",
		IsRunning:           true,
		ThresholdDifference: 10.0,
		CurrentDifference:   &diff,
		IsAbnormal:          true,
	}}
	ctrl := NewTelemetryController(st, &mockRepo{}, 7).(*telemetryControllerImpl)

	req := httptest.NewRequest(http.MethodGet, "/api/station/status", nil)
	rec := httptest.NewRecorder()
	ctrl.handleStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var got station.Status
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.StationID != 7 || !got.IsRunning || !got.IsAbnormal {
		t.Errorf("status body = %+v", got)
	}
	if got.CurrentDifference == nil || *got.CurrentDifference != 9.99 {
		t.Errorf("CurrentDifference = %v, want 9.99", got.CurrentDifference)
	}
}

func Test_handleHistory(t *testing.T) {
	t.Run("empty history is an empty array", func(t *testing.T) {
		ctrl := NewTelemetryController(&mockStation{}, &mockRepo{}, 1).(*telemetryControllerImpl)

		req := httptest.NewRequest(http.MethodGet, "/api/station/history", nil)
		rec := httptest.NewRecorder()
		ctrl.handleHistory(rec, req)

		if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
			t.Errorf("body = %q, want []", body)
		}
	})

	t.Run("readings are returned in order", func(t *testing.T) {
		st := &mockStation{history: []station.Reading{
			{Channel1: 5.0, Channel2: 25.0},
			{Channel1: 5.5, Channel2: 24.5, Simulated: true},
		}}
		ctrl := NewTelemetryController(st, &mockRepo{}, 1).(*telemetryControllerImpl)

		req := httptest.NewRequest(http.MethodGet, "/api/station/history", nil)
		rec := httptest.NewRecorder()
		ctrl.handleHistory(rec, req)

		var got []station.Reading
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2", len(got))
		}
		if !got[1].Simulated {
			t.Error("simulated provenance lost in history payload")
		}
	})
}

func Test_handleReadings(t *testing.T) {
	t.Run("returns archived readings", func(t *testing.T) {
		repo := &mockRepo{readings: []types.ArchivedReading{
			{StationID: 1, Channel1: 5, Channel2: 25},
		}}
		ctrl := NewTelemetryController(&mockStation{}, repo, 1).(*telemetryControllerImpl)

		req := httptest.NewRequest(http.MethodGet, "/api/station/readings?limit=10", nil)
		rec := httptest.NewRecorder()
		ctrl.handleReadings(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
	})

	t.Run("invalid limit is a 400", func(t *testing.T) {
		ctrl := NewTelemetryController(&mockStation{}, &mockRepo{}, 1).(*telemetryControllerImpl)

		req := httptest.NewRequest(http.MethodGet, "/api/station/readings?limit=nope", nil)
		rec := httptest.NewRecorder()
		ctrl.handleReadings(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("repository failure is a 500", func(t *testing.T) {
		repo := &mockRepo{readingsErr: errors.New("boom")}
		ctrl := NewTelemetryController(&mockStation{}, repo, 1).(*telemetryControllerImpl)

		req := httptest.NewRequest(http.MethodGet, "/api/station/readings", nil)
		rec := httptest.NewRecorder()
		ctrl.handleReadings(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
		}
	})
}

func Test_handleStartStop(t *testing.T) {
	st := &mockStation{}
	ctrl := NewTelemetryController(st, &mockRepo{}, 1).(*telemetryControllerImpl)

	rec := httptest.NewRecorder()
	ctrl.handleStart(rec, httptest.NewRequest(http.MethodPost, "/api/station/start", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("start status = %d, want %d", rec.Code, http.StatusOK)
	}
	if st.started != 1 {
		t.Errorf("Start called %d times, want 1", st.started)
	}

	rec = httptest.NewRecorder()
	ctrl.handleStop(rec, httptest.NewRequest(http.MethodPost, "/api/station/stop", nil))
	if st.stopped != 1 {
		t.Errorf("Stop called %d times, want 1", st.stopped)
	}
}

func Test_handleExportCSV(t *testing.T) {
	t.Run("serves the export as an attachment", func(t *testing.T) {
		st := &mockStation{csv: "Timestamp,Channel1_Temperature_Celsius,Channel2_Temperature_Celsius,Station_Name,Station_ID\n"}
		ctrl := NewTelemetryController(st, &mockRepo{}, 1).(*telemetryControllerImpl)

		req := httptest.NewRequest(http.MethodGet, "/api/station/export.csv", nil)
		rec := httptest.NewRecorder()
		ctrl.handleExportCSV(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
			t.Errorf("Content-Type = %q", ct)
		}
		if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") {
			t.Errorf("Content-Disposition = %q", cd)
		}
		if !strings.HasPrefix(rec.Body.String(), "Timestamp,") {
			t.Errorf("body = %q, want csv header first", rec.Body.String())
		}
	})

	t.Run("export failure is a 500", func(t *testing.T) {
		st := &mockStation{csvErr: errors.New("disk full")}
		ctrl := NewTelemetryController(st, &mockRepo{}, 1).(*telemetryControllerImpl)

		req := httptest.NewRequest(http.MethodGet, "/api/station/export.csv", nil)
		rec := httptest.NewRecorder()
		ctrl.handleExportCSV(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
		}
	})
}
