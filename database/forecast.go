package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/icodeforyou/darksky-go/types/maybe"
)

type Block string

const (
	BlockCurrently Block = "currently"
	BlockMinutely  Block = "minutely"
	BlockHourly    Block = "hourly"
	BlockDaily     Block = "daily"
)

type FetchRow struct {
	ID        uuid.UUID
	FetchedAt time.Time
	Latitude  float64
	Longitude float64
	Timezone  maybe.Maybe[string]
	Lang      string
	Units     string
}

type PointRow struct {
	Block             Block                `json:"block"`
	Time              time.Time            `json:"time"`
	Summary           maybe.Maybe[string]  `json:"summary"`
	Icon              maybe.Maybe[string]  `json:"icon"`
	Temperature       maybe.Maybe[float64] `json:"temperature"`
	TemperatureHigh   maybe.Maybe[float64] `json:"temperatureHigh"`
	TemperatureLow    maybe.Maybe[float64] `json:"temperatureLow"`
	PrecipIntensity   maybe.Maybe[float64] `json:"precipIntensity"`
	PrecipProbability maybe.Maybe[float64] `json:"precipProbability"`
	PrecipType        maybe.Maybe[string]  `json:"precipType"`
	CloudCover        maybe.Maybe[float64] `json:"cloudCover"`
	Humidity          maybe.Maybe[float64] `json:"humidity"`
	WindSpeed         maybe.Maybe[float64] `json:"windSpeed"`
}

type AlertRow struct {
	Index       int
	Title       maybe.Maybe[string]
	Severity    maybe.Maybe[string]
	Time        maybe.Maybe[time.Time]
	Expires     maybe.Maybe[time.Time]
	URI         maybe.Maybe[string]
	Description maybe.Maybe[string]
}

// SaveForecast stores a fetch with its points and alerts in a single transaction.
func (d *Database) SaveForecast(ctx context.Context, fetch FetchRow, points []PointRow, alerts []AlertRow) error {
	tx, err := d.write.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO fetch (id, fetched_at, latitude, longitude, timezone, lang, units)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		fetch.ID.String(),
		fetch.FetchedAt.Unix(),
		fetch.Latitude,
		fetch.Longitude,
		fetch.Timezone.Ptr(),
		fetch.Lang,
		fetch.Units)
	if err != nil {
		return fmt.Errorf("saving fetch %s: %w", fetch.ID, err)
	}

	pointStmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO forecast_point (
			fetch_id, block, time, summary, icon,
			temperature, temperature_high, temperature_low,
			precip_intensity, precip_probability, precip_type,
			cloud_cover, humidity, wind_speed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing forecast point statement: %w", err)
	}
	defer pointStmt.Close()

	for _, p := range points {
		_, err := pointStmt.ExecContext(ctx,
			fetch.ID.String(),
			string(p.Block),
			p.Time.Unix(),
			p.Summary.Ptr(),
			p.Icon.Ptr(),
			p.Temperature.Ptr(),
			p.TemperatureHigh.Ptr(),
			p.TemperatureLow.Ptr(),
			p.PrecipIntensity.Ptr(),
			p.PrecipProbability.Ptr(),
			p.PrecipType.Ptr(),
			p.CloudCover.Ptr(),
			p.Humidity.Ptr(),
			p.WindSpeed.Ptr())
		if err != nil {
			return fmt.Errorf("saving %s point at %s: %w", p.Block, p.Time.Format(time.RFC3339), err)
		}
	}

	alertStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO alert (fetch_id, idx, title, severity, time, expires, uri, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing alert statement: %w", err)
	}
	defer alertStmt.Close()

	for _, a := range alerts {
		_, err := alertStmt.ExecContext(ctx,
			fetch.ID.String(),
			a.Index,
			a.Title.Ptr(),
			a.Severity.Ptr(),
			unixOrNil(a.Time),
			unixOrNil(a.Expires),
			a.URI.Ptr(),
			a.Description.Ptr())
		if err != nil {
			return fmt.Errorf("saving alert %d: %w", a.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit forecast %s: %w", fetch.ID, err)
	}

	d.logger.Debug(fmt.Sprintf("saved forecast with %d points and %d alerts", len(points), len(alerts)))
	return nil
}

// GetLatestFetch returns ErrNotFound when the archive is empty.
func (d *Database) GetLatestFetch(ctx context.Context) (FetchRow, error) {
	row := d.read.QueryRowContext(ctx, `
		SELECT id, fetched_at, latitude, longitude, timezone, lang, units
		FROM fetch
		ORDER BY fetched_at DESC, rowid DESC
		LIMIT 1`)

	var f FetchRow
	var id string
	var fetchedAt int64
	var tz sql.NullString
	err := row.Scan(&id, &fetchedAt, &f.Latitude, &f.Longitude, &tz, &f.Lang, &f.Units)
	if errors.Is(err, sql.ErrNoRows) {
		return FetchRow{}, ErrNotFound
	}
	if err != nil {
		return FetchRow{}, fmt.Errorf("fetching latest fetch: %w", err)
	}

	f.ID, err = uuid.Parse(id)
	if err != nil {
		return FetchRow{}, fmt.Errorf("parsing fetch id %q: %w", id, err)
	}
	f.FetchedAt = time.Unix(fetchedAt, 0)
	f.Timezone = maybe.FromOk(tz.String, tz.Valid)

	return f, nil
}

// GetPoints returns the points of one block of a fetch ordered by time.
func (d *Database) GetPoints(ctx context.Context, fetchID uuid.UUID, block Block) ([]PointRow, error) {
	rows, err := d.read.QueryContext(ctx, `
		SELECT block, time, summary, icon,
			temperature, temperature_high, temperature_low,
			precip_intensity, precip_probability, precip_type,
			cloud_cover, humidity, wind_speed
		FROM forecast_point
		WHERE fetch_id = ? AND block = ?
		ORDER BY time`,
		fetchID.String(), string(block))
	if err != nil {
		return nil, fmt.Errorf("fetching %s points: %w", block, err)
	}
	defer rows.Close()

	return scanPoints(rows)
}

// GetHourlyFrom returns the newest archived hourly value for every hour from the given time.
func (d *Database) GetHourlyFrom(ctx context.Context, from time.Time) ([]PointRow, error) {
	rows, err := d.read.QueryContext(ctx, `
		SELECT p.block, p.time, p.summary, p.icon,
			p.temperature, p.temperature_high, p.temperature_low,
			p.precip_intensity, p.precip_probability, p.precip_type,
			p.cloud_cover, p.humidity, p.wind_speed
		FROM forecast_point p
		JOIN fetch f ON f.id = p.fetch_id
		WHERE p.block = ? AND p.time >= ?
			AND f.fetched_at = (
				SELECT MAX(f2.fetched_at)
				FROM forecast_point p2
				JOIN fetch f2 ON f2.id = p2.fetch_id
				WHERE p2.block = p.block AND p2.time = p.time)
		GROUP BY p.time
		ORDER BY p.time`,
		string(BlockHourly), from.Unix())
	if err != nil {
		return nil, fmt.Errorf("fetching hourly points: %w", err)
	}
	defer rows.Close()

	return scanPoints(rows)
}

func (d *Database) GetAlerts(ctx context.Context, fetchID uuid.UUID) ([]AlertRow, error) {
	rows, err := d.read.QueryContext(ctx, `
		SELECT idx, title, severity, time, expires, uri, description
		FROM alert
		WHERE fetch_id = ?
		ORDER BY idx`,
		fetchID.String())
	if err != nil {
		return nil, fmt.Errorf("fetching alerts: %w", err)
	}
	defer rows.Close()

	result := []AlertRow{}
	for rows.Next() {
		var a AlertRow
		var title, severity, uri, description sql.NullString
		var at, expires sql.NullInt64
		if err := rows.Scan(&a.Index, &title, &severity, &at, &expires, &uri, &description); err != nil {
			return nil, fmt.Errorf("scanning alert: %w", err)
		}
		a.Title = maybe.FromOk(title.String, title.Valid)
		a.Severity = maybe.FromOk(severity.String, severity.Valid)
		a.Time = maybe.FromOk(time.Unix(at.Int64, 0), at.Valid)
		a.Expires = maybe.FromOk(time.Unix(expires.Int64, 0), expires.Valid)
		a.URI = maybe.FromOk(uri.String, uri.Valid)
		a.Description = maybe.FromOk(description.String, description.Valid)
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading alert rows: %w", err)
	}

	return result, nil
}

// PurgeFetches removes fetches older than retentionDays together with their points and alerts.
func (d *Database) PurgeFetches(ctx context.Context, retentionDays int) error {
	if retentionDays < 1 {
		return nil
	}
	return d.purgeBefore(ctx, "fetch", "fetched_at", retentionDays)
}

func scanPoints(rows *sql.Rows) ([]PointRow, error) {
	result := []PointRow{}
	for rows.Next() {
		var p PointRow
		var block string
		var at int64
		var summary, icon, precipType sql.NullString
		var temp, tempHigh, tempLow, precipInt, precipProb, cloud, humidity, wind sql.NullFloat64
		err := rows.Scan(&block, &at, &summary, &icon,
			&temp, &tempHigh, &tempLow,
			&precipInt, &precipProb, &precipType,
			&cloud, &humidity, &wind)
		if err != nil {
			return nil, fmt.Errorf("scanning forecast point: %w", err)
		}
		p.Block = Block(block)
		p.Time = time.Unix(at, 0)
		p.Summary = maybe.FromOk(summary.String, summary.Valid)
		p.Icon = maybe.FromOk(icon.String, icon.Valid)
		p.Temperature = maybe.FromOk(temp.Float64, temp.Valid)
		p.TemperatureHigh = maybe.FromOk(tempHigh.Float64, tempHigh.Valid)
		p.TemperatureLow = maybe.FromOk(tempLow.Float64, tempLow.Valid)
		p.PrecipIntensity = maybe.FromOk(precipInt.Float64, precipInt.Valid)
		p.PrecipProbability = maybe.FromOk(precipProb.Float64, precipProb.Valid)
		p.PrecipType = maybe.FromOk(precipType.String, precipType.Valid)
		p.CloudCover = maybe.FromOk(cloud.Float64, cloud.Valid)
		p.Humidity = maybe.FromOk(humidity.Float64, humidity.Valid)
		p.WindSpeed = maybe.FromOk(wind.Float64, wind.Valid)
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading forecast point rows: %w", err)
	}
	return result, nil
}

func unixOrNil(t maybe.Maybe[time.Time]) any {
	if v, ok := t.Get(); ok {
		return v.Unix()
	}
	return nil
}
