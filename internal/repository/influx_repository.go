package repository

import (
	"context"
	"fmt"
	"time"

	"solar_planner/internal/config"
	"solar_planner/internal/domain"

	influxdb3 "github.com/InfluxCommunity/influxdb3-go/v2/influxdb3"
)

const snapshotMeasurement = "sizing_snapshot"

// SnapshotSink records the derived sizing of each committed project write
type SnapshotSink interface {
	Record(ctx context.Context, r domain.ProjectRecord, d domain.DerivedMetrics) error
}

// InfluxSnapshotSink writes sizing snapshots to InfluxDB
type InfluxSnapshotSink struct {
	db *config.InfluxDatabase
}

// NewInfluxSnapshotSink creates a sink on an open InfluxDB connection
func NewInfluxSnapshotSink(db *config.InfluxDatabase) *InfluxSnapshotSink {
	return &InfluxSnapshotSink{db: db}
}

func (s *InfluxSnapshotSink) Record(ctx context.Context, r domain.ProjectRecord, d domain.DerivedMetrics) error {
	if s.db == nil || s.db.Client == nil {
		return fmt.Errorf("InfluxDB client is nil - database not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.db.Client.WritePoints(ctx, []*influxdb3.Point{snapshotPoint(r, d)}); err != nil {
		return fmt.Errorf("WritePoints failed: %w (project: %s, db: %s)", err, r.ID, s.db.Database)
	}
	return nil
}

// snapshotPoint converts a project and its metrics to one InfluxDB point
func snapshotPoint(r domain.ProjectRecord, d domain.DerivedMetrics) *influxdb3.Point {
	tags := map[string]string{
		"project_id":  r.ID,
		"calc_method": string(r.CalcMethod),
	}

	fields := map[string]interface{}{
		"daily_energy_kwh": d.DailyEnergyWh / 1000,
		"panels":           d.NumberOfPanels,
		"system_kw":        d.ActualSystemSizeKw,
		"battery_ah":       d.RequiredBatteryCapacityAh,
		"batteries":        d.TotalNumberOfBatteries,
		"inverter_kva":     d.InverterSizeKva,
		"controller_amps":  d.ChargeControllerAmps,
	}

	ts := r.LastUpdated
	if ts.IsZero() {
		ts = time.Now()
	}

	return influxdb3.NewPoint(snapshotMeasurement, tags, fields, ts)
}
