package task

import (
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/icodeforyou/darksky-go/darksky"
	"github.com/icodeforyou/darksky-go/database"
	"github.com/icodeforyou/darksky-go/slice"
	"github.com/icodeforyou/darksky-go/types/maybe"
)

type archive struct {
	fetch     database.FetchRow
	currently maybe.Maybe[database.PointRow]
	points    []database.PointRow
	alerts    []database.AlertRow
}

// toArchive flattens a forecast into database rows. Excluded or absent
// sections are skipped, malformed ones fail the whole conversion.
func toArchive(f *darksky.Forecast, fetchedAt time.Time) (archive, error) {
	tz, ok := f.Timezone()
	a := archive{
		fetch: database.FetchRow{
			ID:        uuid.New(),
			FetchedAt: fetchedAt,
			Latitude:  f.Lat(),
			Longitude: f.Lng(),
			Timezone:  maybe.FromOk(tz, ok),
			Lang:      f.Lang(),
			Units:     f.Units(),
		},
	}

	currently, err := f.Currently()
	switch {
	case errors.Is(err, darksky.ErrSectionMissing):
	case err != nil:
		return archive{}, err
	default:
		if _, err := currently.Unix(); err == nil {
			row := toPointRow(database.BlockCurrently)(currently.Datapoint)
			a.currently = maybe.Some(row)
			a.points = append(a.points, row)
		}
	}

	blocks := []struct {
		block database.Block
		get   func() (darksky.Datablock, error)
	}{
		{database.BlockMinutely, func() (darksky.Datablock, error) { m, err := f.Minutely(); return m.Datablock, err }},
		{database.BlockHourly, func() (darksky.Datablock, error) { h, err := f.Hourly(); return h.Datablock, err }},
		{database.BlockDaily, func() (darksky.Datablock, error) { d, err := f.Daily(); return d.Datablock, err }},
	}
	for _, b := range blocks {
		blk, err := b.get()
		if errors.Is(err, darksky.ErrSectionMissing) {
			continue
		}
		if err != nil {
			return archive{}, err
		}
		a.points = append(a.points, slice.Map(slices.Collect(blk.Points()), toPointRow(b.block))...)
	}

	alerts, err := f.Alerts()
	switch {
	case errors.Is(err, darksky.ErrSectionMissing):
	case err != nil:
		return archive{}, err
	default:
		a.alerts = slice.Map(slices.Collect(alerts.All()), toAlertRow)
		for i := range a.alerts {
			a.alerts[i].Index = i
		}
	}

	return a, nil
}

func toPointRow(block database.Block) func(darksky.Datapoint) database.PointRow {
	return func(dp darksky.Datapoint) database.PointRow {
		at, _ := dp.Time()
		return database.PointRow{
			Block:             block,
			Time:              at,
			Summary:           text(dp, "summary"),
			Icon:              text(dp, "icon"),
			Temperature:       number(dp, "temperature"),
			TemperatureHigh:   number(dp, "temperatureHigh"),
			TemperatureLow:    number(dp, "temperatureLow"),
			PrecipIntensity:   number(dp, "precipIntensity"),
			PrecipProbability: number(dp, "precipProbability"),
			PrecipType:        text(dp, "precipType"),
			CloudCover:        number(dp, "cloudCover"),
			Humidity:          number(dp, "humidity"),
			WindSpeed:         number(dp, "windSpeed"),
		}
	}
}

func toAlertRow(dp darksky.Datapoint) database.AlertRow {
	return database.AlertRow{
		Title:       text(dp, "title"),
		Severity:    text(dp, "severity"),
		Time:        unixTime(dp, "time"),
		Expires:     unixTime(dp, "expires"),
		URI:         text(dp, "uri"),
		Description: text(dp, "description"),
	}
}

func text(dp darksky.Datapoint, name string) maybe.Maybe[string] {
	v, err := dp.Text(name)
	return maybe.FromOk(v, err == nil)
}

func number(dp darksky.Datapoint, name string) maybe.Maybe[float64] {
	v, err := dp.Float(name)
	return maybe.FromOk(v, err == nil)
}

func unixTime(dp darksky.Datapoint, name string) maybe.Maybe[time.Time] {
	v, err := dp.Int(name)
	return maybe.FromOk(time.Unix(v, 0), err == nil)
}
