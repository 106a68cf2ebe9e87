package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/icodeforyou/darksky-go/config"
	"github.com/icodeforyou/darksky-go/darksky"
	"github.com/lmittmann/tint"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	key := flag.String("key", "", "API key, overrides darksky.key")
	lat := flag.String("lat", "", "latitude, overrides darksky.latitude")
	lng := flag.String("lng", "", "longitude, overrides darksky.longitude")
	lang := flag.String("lang", "", "summary language")
	units := flag.String("units", "", "unit system")
	exclude := flag.String("exclude", "", "comma separated sections to exclude")
	hours := flag.Int("hours", 12, "number of hourly data points to print")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	}))
	slog.SetDefault(logger)

	cnfg := config.AppConfigDarkSky{}
	if c, err := config.Load(*configPath); err == nil {
		cnfg = c.DarkSky
	} else {
		logger.Debug("no usable config, relying on flags", slog.Any("error", err))
	}

	if *key != "" {
		cnfg.Key = *key
	}
	if *lat != "" {
		cnfg.Latitude = mustCoordinate(logger, "lat", *lat)
	}
	if *lng != "" {
		cnfg.Longitude = mustCoordinate(logger, "lng", *lng)
	}
	if *lang != "" {
		cnfg.Lang = lang
	}
	if *units != "" {
		cnfg.Units = units
	}
	opts := cnfg.Options()
	if *exclude != "" {
		opts = append(opts, darksky.WithExclude(darksky.ParseSections(*exclude)...))
	}
	opts = append(opts,
		darksky.WithFetcher(darksky.NewHTTPFetcher(cnfg.GetTimeout())),
		darksky.WithLogger(logger))

	ctx, cancel := context.WithTimeout(context.Background(), cnfg.GetTimeout()+5*time.Second)
	defer cancel()

	f, err := darksky.NewForecast(ctx, cnfg.Key, cnfg.Latitude, cnfg.Longitude, opts...)
	if err != nil {
		var pe *darksky.InvalidParameterError
		if errors.As(err, &pe) {
			logger.Error("invalid parameter", slog.String("param", pe.Param), slog.Any("values", pe.Values))
		} else {
			logger.Error("forecast failed", slog.Any("error", err))
		}
		os.Exit(1)
	}

	fmt.Println(f)
	if tz, ok := f.Timezone(); ok {
		fmt.Printf("Timezone: %s\n", tz)
	}
	loc, err := f.Location()
	if err != nil {
		loc = time.UTC
	}

	if c, err := f.Currently(); report(logger, err) {
		fmt.Println(c)
		printPoint(c.Datapoint, loc)
	}

	if m, err := f.Minutely(); report(logger, err) {
		fmt.Println(m)
		fmt.Printf("  %s\n", m.Summary())
	}

	if h, err := f.Hourly(); report(logger, err) {
		fmt.Println(h)
		fmt.Printf("  %s\n", h.Summary())
		n := 0
		for p := range h.Points() {
			if n == *hours {
				break
			}
			printPoint(p, loc)
			n++
		}
	}

	if d, err := f.Daily(); report(logger, err) {
		fmt.Println(d)
		fmt.Printf("  %s\n", d.Summary())
		for p := range d.Points() {
			at, _ := p.Time()
			high, _ := p.Float("temperatureHigh")
			low, _ := p.Float("temperatureLow")
			fmt.Printf("  %s  %6.1f / %6.1f\n", at.In(loc).Format("Mon 2006-01-02"), high, low)
		}
	}

	if a, err := f.Alerts(); report(logger, err) {
		fmt.Println(a)
	}

	if fl, err := f.Flags(); report(logger, err) {
		fmt.Println(fl)
	}
}

// report logs err unless the section is simply absent and tells whether
// the section can be printed.
func report(logger *slog.Logger, err error) bool {
	if err == nil {
		return true
	}
	if !errors.Is(err, darksky.ErrSectionMissing) {
		logger.Warn("malformed section", slog.Any("error", err))
	}
	return false
}

func printPoint(p darksky.Datapoint, loc *time.Location) {
	at, err := p.Time()
	if err != nil {
		return
	}
	summary, _ := p.Text("summary")
	temp, _ := p.Float("temperature")
	fmt.Printf("  %s  %6.1f  %s\n", at.In(loc).Format("2006-01-02 15:04"), temp, summary)
}

func mustCoordinate(logger *slog.Logger, name, s string) float64 {
	v, err := darksky.ParseCoordinate(s)
	if err != nil {
		logger.Error("invalid coordinate", slog.String("flag", name), slog.Any("error", err))
		os.Exit(1)
	}
	return v
}
