package commands

import (
	"time"

	"schoolkr/internal/components/telemetry"
	"schoolkr/internal/portal"
	"schoolkr/internal/region"
	"schoolkr/pkg/school"
)

type CacheConfig struct {
	Size       int `json:"size"`
	TtlMinutes int `json:"ttl_minutes"`
}

type Config struct {
	// Region is the initially active region.
	Region             string                     `json:"region"`
	Scheme             string                     `json:"scheme"`
	TimeoutSeconds     int                        `json:"timeout_seconds"`
	SessionTtlMinutes  int                        `json:"session_ttl_minutes"`
	RateLimit          float64                    `json:"rate_limit"`
	BrowserFingerprint bool                       `json:"browser_fingerprint"`
	Regions            map[string]region.Override `json:"regions"`
	Cache              CacheConfig                `json:"cache"`
	MealListKey        string                     `json:"meal_list_key"`
	CalendarListKey    string                     `json:"calendar_list_key"`
	Telemetry          telemetry.Config           `json:"telemetry"`
}

var defaultConfig = Config{
	Region:            "gyeonggi",
	Scheme:            "https",
	TimeoutSeconds:    30,
	SessionTtlMinutes: 30,
	RateLimit:         2,
}

func (c Config) registry() (region.Registry, error) {
	return region.DefaultRegistry().Merge(c.Regions)
}

func (c Config) portalOptions() (portal.Options, error) {
	id, err := region.ParseID(c.Region)
	if err != nil {
		return portal.Options{}, err
	}
	return portal.Options{
		Region:             id,
		Scheme:             c.Scheme,
		Timeout:            time.Duration(c.TimeoutSeconds) * time.Second,
		SessionTTL:         time.Duration(c.SessionTtlMinutes) * time.Minute,
		RateLimit:          c.RateLimit,
		BrowserFingerprint: c.BrowserFingerprint,
	}, nil
}

func (c Config) schoolOptions() school.Options {
	return school.Options{
		CacheSize:       c.Cache.Size,
		CacheTTL:        time.Duration(c.Cache.TtlMinutes) * time.Minute,
		MealListKey:     c.MealListKey,
		CalendarListKey: c.CalendarListKey,
	}
}
