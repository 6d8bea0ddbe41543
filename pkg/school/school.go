package school

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"schoolkr/internal/components/assert"
	"schoolkr/internal/components/telemetry"
	"schoolkr/internal/portal"
	"schoolkr/internal/region"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	report_school_search   = "school.search"
	report_school_schedule = "school.schedule"
)

// Client is the part of portal.Client the facade depends on.
type Client interface {
	SetRegion(id region.ID) error
	Registry() region.Registry
	Do(ctx context.Context, d portal.Descriptor) (portal.RawResponse, error)
}

// Record is a single school search result.
type Record struct {
	Name       string `json:"name"`
	SchoolCode string `json:"schoolCode"`
	Address    string `json:"address"`
}

// Entry is a single item of a meal or calendar result list, kept as the portal sent it.
type Entry map[string]any

type Options struct {
	// CacheSize is the number of meal/calendar months kept, defaults to 256.
	CacheSize int
	// CacheTTL defaults to one hour, a negative value disables caching.
	CacheTTL time.Duration
	// MealListKey and CalendarListKey name the list inside `resultSVO`.
	MealListKey     string
	CalendarListKey string
}

func (o Options) withDefaults() Options {
	if o.CacheSize <= 0 {
		o.CacheSize = 256
	}
	if o.CacheTTL == 0 {
		o.CacheTTL = time.Hour
	}
	if o.MealListKey == "" {
		o.MealListKey = "mthDietList"
	}
	if o.CalendarListKey == "" {
		o.CalendarListKey = "selectYearList"
	}
	return o
}

type binding struct {
	typ    region.Type
	region region.ID
	code   string
}

// School validates arguments, calls the portal and reshapes its responses.
type School struct {
	client Client
	tel    telemetry.API
	opts   Options
	cache  *expirable.LRU[string, []Entry]

	mu    sync.Mutex
	bound *binding
}

func New(client Client, opts Options, tel telemetry.API) *School {
	assert.NotNil(client)
	assert.NotNil(tel)

	opts = opts.withDefaults()
	s := &School{
		client: client,
		tel:    telemetry.NewScopedAPI("school", tel),
		opts:   opts,
	}
	if opts.CacheTTL > 0 {
		s.cache = expirable.NewLRU[string, []Entry](opts.CacheSize, nil, opts.CacheTTL)
	}
	return s
}

func (s *School) validateRegion(id region.ID) error {
	if !id.Valid() || !s.client.Registry().Has(id) {
		return &ConfigurationError{Field: "region", Value: id.String(), Reason: "not a known education office"}
	}
	return nil
}

func nonEmpty(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ConfigurationError{Field: field, Reason: "must not be empty"}
	}
	return nil
}

// Init binds the facade to a single school for Meal and Calendar, and makes its region the
// active region of the client.
func (s *School) Init(typ region.Type, id region.ID, schoolCode string) error {
	if !typ.Valid() {
		return &ConfigurationError{Field: "type", Value: typ.String(), Reason: "not a known institution type"}
	}
	err := s.validateRegion(id)
	if err != nil {
		return err
	}
	err = nonEmpty("school code", schoolCode)
	if err != nil {
		return err
	}

	err = s.client.SetRegion(id)
	if err != nil {
		return &ConfigurationError{Field: "region", Value: id.String(), Reason: err.Error()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.bound = &binding{typ: typ, region: id, code: strings.TrimSpace(schoolCode)}
	return nil
}

type searchRequest struct {
	KraOrgNm string `json:"kraOrgNm"`
}

type orgDVO struct {
	KraOrgNm string `json:"kraOrgNm"`
	OrgCode  string `json:"orgCode"`
	ZipAdres string `json:"zipAdres"`
}

type searchResult struct {
	OrgDVOList []orgDVO `json:"orgDVOList"`
}

// Search finds the schools named like `name` in a region.
func (s *School) Search(ctx context.Context, id region.ID, name string) ([]Record, error) {
	err := s.validateRegion(id)
	if err != nil {
		return nil, err
	}
	err = nonEmpty("school name", name)
	if err != nil {
		return nil, err
	}

	err = s.client.SetRegion(id)
	if err != nil {
		return nil, &ConfigurationError{Field: "region", Value: id.String(), Reason: err.Error()}
	}

	s.tel.ReportDebug(report_school_search, id.String(), name)

	res, err := s.client.Do(ctx, portal.Descriptor{
		Region:  id,
		Kind:    region.Search,
		Method:  http.MethodPost,
		Payload: searchRequest{KraOrgNm: name},
	})
	if err != nil {
		return nil, err
	}

	result, err := decode[searchResult](res)
	if err != nil {
		if !IsPortalError(err) {
			s.tel.ReportBroken(report_school_search, err, id.String())
		}
		return nil, err
	}

	records := make([]Record, len(result.OrgDVOList))
	for i, org := range result.OrgDVOList {
		records[i] = Record{
			Name:       org.KraOrgNm,
			SchoolCode: org.OrgCode,
			Address:    org.ZipAdres,
		}
	}
	return records, nil
}

type scheduleRequest struct {
	Ay              string `json:"ay"`
	Mm              string `json:"mm"`
	SchulCode       string `json:"schulCode"`
	SchulCrseScCode string `json:"schulCrseScCode"`
	SchulKndScCode  string `json:"schulKndScCode"`
}

// Meal returns the meal menu entries of a month for the school bound by Init.
func (s *School) Meal(ctx context.Context, year int, month time.Month) ([]Entry, error) {
	return s.schedule(ctx, region.Meal, s.opts.MealListKey, year, month)
}

// Calendar returns the academic calendar entries of a month for the school bound by Init.
func (s *School) Calendar(ctx context.Context, year int, month time.Month) ([]Entry, error) {
	return s.schedule(ctx, region.Calendar, s.opts.CalendarListKey, year, month)
}

func (s *School) boundSchool() (binding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bound == nil {
		return binding{}, &ConfigurationError{Field: "school", Reason: "Init must be called first"}
	}
	return *s.bound, nil
}

func (s *School) schedule(ctx context.Context, kind region.Kind, listKey string, year int, month time.Month) ([]Entry, error) {
	b, err := s.boundSchool()
	if err != nil {
		return nil, err
	}
	if year < 1 || year > 9999 {
		return nil, &ConfigurationError{Field: "year", Value: fmt.Sprint(year), Reason: "out of range"}
	}
	if month < time.January || month > time.December {
		return nil, &ConfigurationError{Field: "month", Value: fmt.Sprint(int(month)), Reason: "out of range"}
	}

	key := fmt.Sprintf("%s:%s:%s:%04d-%02d", b.region, b.code, kind, year, month)
	if s.cache != nil {
		cached, ok := s.cache.Get(key)
		if ok {
			return cached, nil
		}
	}

	// a Search for another region may have switched away since Init, the session of the
	// bound region is only kept while it is the active one
	err = s.client.SetRegion(b.region)
	if err != nil {
		return nil, &ConfigurationError{Field: "region", Value: b.region.String(), Reason: err.Error()}
	}

	s.tel.ReportDebug(report_school_schedule, key)

	res, err := s.client.Do(ctx, portal.Descriptor{
		Region: b.region,
		Kind:   kind,
		Method: http.MethodPost,
		Payload: scheduleRequest{
			Ay:              fmt.Sprintf("%04d", year),
			Mm:              fmt.Sprintf("%02d", int(month)),
			SchulCode:       b.code,
			SchulCrseScCode: b.typ.CourseCode(),
			SchulKndScCode:  b.typ.KindCode(),
		},
	})
	if err != nil {
		return nil, err
	}

	result, err := decode[map[string]json.RawMessage](res)
	if err != nil {
		if !IsPortalError(err) {
			s.tel.ReportBroken(report_school_schedule, err, key)
		}
		return nil, err
	}

	entries := []Entry{}
	raw, ok := result[listKey]
	if ok && string(raw) != "null" {
		err = json.Unmarshal(raw, &entries)
		if err != nil {
			err = fmt.Errorf("decode %s list: %w", listKey, err)
			s.tel.ReportBroken(report_school_schedule, err, key)
			return nil, err
		}
	}

	if s.cache != nil {
		s.cache.Add(key, entries)
	}
	return entries, nil
}
