package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"thermopair-station/internal/config"
	"thermopair-station/internal/db"
	"thermopair-station/internal/httpapi"
	"thermopair-station/internal/migrate"
	"thermopair-station/internal/modules/telemetry"
	"thermopair-station/internal/modules/telemetry/types"
	"thermopair-station/internal/mqtt"
	"thermopair-station/internal/sensor"
	"thermopair-station/internal/station"
)

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"stationId", cfg.StationID,
		"stationName", cfg.StationName,
		"threshold", cfg.ThresholdDifference,
		"useHardware", cfg.UseHardware,
		"serialPort", cfg.SerialPort,
		"pollInterval", cfg.PollInterval,
		"sqlitePath", cfg.SQLitePath,
		"mqttEnabled", cfg.MQTTEnabled,
	)

	dbConn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	if err := migrate.Run(dbConn); err != nil {
		return err
	}

	var source sensor.Source
	if cfg.UseHardware {
		source = sensor.NewModbusSource(sensor.ModbusConfig{
			Port:         cfg.SerialPort,
			SlaveAddress: cfg.SlaveAddress,
			BaudRate:     cfg.BaudRate,
			Timeout:      cfg.SerialTimeout,
		}, slog.Default())
	} else {
		source = sensor.NewSimulatedSource()
	}

	var publisher *mqtt.Client
	if cfg.MQTTEnabled {
		publisher, err = mqtt.NewClient(cfg, slog.Default())
		if err != nil {
			return err
		}
		// Short timeout for the initial connect so a down broker doesn't
		// block startup; the client keeps retrying in the background.
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err = publisher.Connect(connectCtx)
		connectCancel()
		if err != nil {
			slog.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
	}

	st := station.New(station.Options{
		ID:           cfg.StationID,
		Name:         cfg.StationName,
		Threshold:    cfg.ThresholdDifference,
		UseHardware:  cfg.UseHardware,
		Source:       source,
		PollInterval: cfg.PollInterval,
		HistoryLimit: cfg.HistoryLimit,
		Logger:       slog.Default(),
	})

	mux := httpapi.NewMux(dbConn)
	repo := telemetry.RegisterFeature(mux, dbConn, st, cfg.StationID)

	// The sink archives every reading and, when configured, publishes it.
	// Neither failure may stall the polling loop.
	st.SetSink(func(r station.Reading) {
		rec := types.ArchivedReading{
			StationID:   cfg.StationID,
			StationName: cfg.StationName,
			Time:        r.Timestamp,
			Channel1:    r.Channel1,
			Channel2:    r.Channel2,
			Simulated:   r.Simulated,
		}
		if err := repo.InsertReading(rec); err != nil {
			slog.Error("archive reading", "error", err)
		}
		if publisher != nil {
			if err := publisher.PublishReading(cfg.StationID, r); err != nil {
				slog.Debug("publish reading", "error", err)
			}
		}
	})

	st.Start()
	defer st.Stop()

	srv := httpapi.NewServer(cfg, mux)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("station stopping")
	st.Stop()

	if publisher != nil {
		slog.Info("mqtt disconnecting")
		publisher.Disconnect()
	}

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
