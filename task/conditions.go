package task

import (
	"time"

	"github.com/google/uuid"
	"github.com/icodeforyou/darksky-go/database"
	"github.com/icodeforyou/darksky-go/slice"
	"github.com/icodeforyou/darksky-go/types/maybe"
)

// Conditions is the current weather as pushed to MQTT and websocket clients.
type Conditions struct {
	FetchID           uuid.UUID            `json:"fetchId"`
	FetchedAt         time.Time            `json:"fetchedAt"`
	Latitude          float64              `json:"latitude"`
	Longitude         float64              `json:"longitude"`
	Timezone          maybe.Maybe[string]  `json:"timezone"`
	Time              time.Time            `json:"time"`
	Summary           maybe.Maybe[string]  `json:"summary"`
	Icon              maybe.Maybe[string]  `json:"icon"`
	Temperature       maybe.Maybe[float64] `json:"temperature"`
	PrecipIntensity   maybe.Maybe[float64] `json:"precipIntensity"`
	PrecipProbability maybe.Maybe[float64] `json:"precipProbability"`
	PrecipType        maybe.Maybe[string]  `json:"precipType"`
	CloudCover        maybe.Maybe[float64] `json:"cloudCover"`
	Humidity          maybe.Maybe[float64] `json:"humidity"`
	WindSpeed         maybe.Maybe[float64] `json:"windSpeed"`
	Alerts            []string             `json:"alerts"`
}

func NewConditions(fetch database.FetchRow, currently database.PointRow, alerts []database.AlertRow) Conditions {
	return Conditions{
		FetchID:           fetch.ID,
		FetchedAt:         fetch.FetchedAt,
		Latitude:          fetch.Latitude,
		Longitude:         fetch.Longitude,
		Timezone:          fetch.Timezone,
		Time:              currently.Time,
		Summary:           currently.Summary,
		Icon:              currently.Icon,
		Temperature:       currently.Temperature,
		PrecipIntensity:   currently.PrecipIntensity,
		PrecipProbability: currently.PrecipProbability,
		PrecipType:        currently.PrecipType,
		CloudCover:        currently.CloudCover,
		Humidity:          currently.Humidity,
		WindSpeed:         currently.WindSpeed,
		Alerts: slice.Map(alerts, func(a database.AlertRow) string {
			return a.Title.ValueOrDefault("")
		}),
	}
}

// Listener is called after every successfully archived forecast that has current conditions.
type Listener func(Conditions)
