package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/satriahrh/cocoa-fruit/assistant/domain"
	"github.com/satriahrh/cocoa-fruit/assistant/utils/log"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL  = "https://wttr.in"
	MaxForecastDays = 7
)

var goodConditions = []string{"sunny", "clear", "partly cloudy", "晴", "多云", "少云", "fair", "fine", "bright"}

var badConditions = []string{
	"rain", "storm", "snow", "thunder", "雨", "雪", "雷",
	"sleet", "hail", "fog", "mist", "drizzle", "shower",
	"overcast", "cloudy", "阴",
}

func init() {
	sort.SliceStable(goodConditions, func(i, j int) bool {
		return len(goodConditions[i]) > len(goodConditions[j])
	})
}

// WttrClient reads current conditions and forecasts from wttr.in's j1 JSON.
type WttrClient struct {
	baseURL string
	client  *http.Client
	now     func() time.Time
}

func NewWttrClient(baseURL string) *WttrClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &WttrClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		now:     time.Now,
	}
}

type valueList []struct {
	Value string `json:"value"`
}

func (v valueList) first() string {
	if len(v) == 0 {
		return ""
	}
	return v[0].Value
}

type wttrHourly struct {
	Humidity    string    `json:"humidity"`
	WeatherCode string    `json:"weatherCode"`
	WeatherDesc valueList `json:"weatherDesc"`
}

type wttrResponse struct {
	CurrentCondition []struct {
		TempC         string    `json:"temp_C"`
		FeelsLikeC    string    `json:"FeelsLikeC"`
		Humidity      string    `json:"humidity"`
		WindspeedKmph string    `json:"windspeedKmph"`
		WeatherCode   string    `json:"weatherCode"`
		WeatherDesc   valueList `json:"weatherDesc"`
	} `json:"current_condition"`
	NearestArea []struct {
		AreaName valueList `json:"areaName"`
		Country  valueList `json:"country"`
	} `json:"nearest_area"`
	Weather []struct {
		Date        string       `json:"date"`
		MaxTempC    string       `json:"maxtempC"`
		MinTempC    string       `json:"mintempC"`
		AvgHumidity string       `json:"avgHumidity"`
		Hourly      []wttrHourly `json:"hourly"`
	} `json:"weather"`
}

func (c *WttrClient) fetch(ctx context.Context, op, city string) (*wttrResponse, error) {
	endpoint := fmt.Sprintf("%s/%s?format=j1", c.baseURL, url.PathEscape(strings.TrimSpace(city)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &domain.WeatherAPIError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &domain.WeatherAPIError{Op: op, Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s %q: %w", op, city, domain.ErrCityNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &domain.WeatherAPIError{Op: op, Err: fmt.Errorf("status %s", resp.Status)}
	}

	var body wttrResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &domain.WeatherAPIError{Op: op, Timeout: isTimeout(err), Err: fmt.Errorf("decoding response: %w", err)}
	}
	if len(body.NearestArea) == 0 || len(body.CurrentCondition) == 0 {
		return nil, fmt.Errorf("%s %q: %w", op, city, domain.ErrCityNotFound)
	}
	return &body, nil
}

func (c *WttrClient) Current(ctx context.Context, city string) (domain.WeatherSnapshot, error) {
	body, err := c.fetch(ctx, "current", city)
	if err != nil {
		return domain.WeatherSnapshot{}, err
	}
	snap := c.snapshotFrom(body, city)
	log.WithCtx(ctx).Debug("🌤️ Current weather fetched", zap.String("city", snap.City), zap.String("condition", snap.Condition))
	return snap, nil
}

// Forecast returns up to days daily forecasts; days is clamped to 1..7.
func (c *WttrClient) Forecast(ctx context.Context, city string, days int) ([]domain.ForecastDay, error) {
	body, err := c.fetch(ctx, "forecast", city)
	if err != nil {
		return nil, err
	}
	return c.forecastFrom(body, days), nil
}

// Lookup builds the snapshot and the forecast from a single j1 document.
func (c *WttrClient) Lookup(ctx context.Context, city string, days int) (domain.WeatherReport, error) {
	body, err := c.fetch(ctx, "lookup", city)
	if err != nil {
		return domain.WeatherReport{}, err
	}
	report := domain.WeatherReport{
		Current:  c.snapshotFrom(body, city),
		Forecast: c.forecastFrom(body, days),
	}
	if len(report.Forecast) == 0 {
		log.WithCtx(ctx).Warn("forecast unavailable", zap.String("city", city))
	}
	log.WithCtx(ctx).Debug("🌤️ Weather report fetched",
		zap.String("city", report.Current.City),
		zap.String("condition", report.Current.Condition),
		zap.Int("forecast_days", len(report.Forecast)))
	return report, nil
}

func (c *WttrClient) snapshotFrom(body *wttrResponse, city string) domain.WeatherSnapshot {
	cur := body.CurrentCondition[0]
	condition := cur.WeatherDesc.first()
	if condition == "" {
		condition = "Unknown"
	}
	return domain.WeatherSnapshot{
		City:        strings.TrimSpace(city),
		Country:     body.NearestArea[0].Country.first(),
		Temperature: parseFloat(cur.TempC),
		FeelsLike:   parseFloat(cur.FeelsLikeC),
		Humidity:    parseInt(cur.Humidity),
		WindSpeed:   parseFloat(cur.WindspeedKmph),
		Condition:   condition,
		Icon:        cur.WeatherCode,
		UpdatedAt:   c.now(),
	}
}

func (c *WttrClient) forecastFrom(body *wttrResponse, days int) []domain.ForecastDay {
	days = ClampDays(days)
	out := make([]domain.ForecastDay, 0, days)
	for _, d := range body.Weather {
		if len(out) == days {
			break
		}
		date, err := time.Parse(time.DateOnly, d.Date)
		if err != nil {
			date = c.now()
		}

		var mid wttrHourly
		if len(d.Hourly) > 0 {
			mid = d.Hourly[len(d.Hourly)/2]
		}
		condition := mid.WeatherDesc.first()
		if condition == "" {
			condition = "Unknown"
		}
		humidity := d.AvgHumidity
		if humidity == "" {
			humidity = mid.Humidity
		}

		out = append(out, domain.ForecastDay{
			Date:          date,
			DayOfWeek:     date.Weekday().String(),
			TempMin:       parseFloat(d.MinTempC),
			TempMax:       parseFloat(d.MaxTempC),
			Humidity:      parseInt(humidity),
			Condition:     condition,
			Icon:          mid.WeatherCode,
			IsGoodWeather: IsGoodWeather(condition),
		})
	}
	return out
}

// IsGoodWeather checks good keywords longest first, then bad keywords, and
// defaults to good.
func IsGoodWeather(condition string) bool {
	lower := strings.ToLower(condition)
	for _, good := range goodConditions {
		if strings.Contains(lower, good) {
			return true
		}
	}
	for _, bad := range badConditions {
		if strings.Contains(lower, bad) {
			return false
		}
	}
	return true
}

func ClampDays(days int) int {
	switch {
	case days < 1:
		return 1
	case days > MaxForecastDays:
		return MaxForecastDays
	default:
		return days
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func parseInt(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}
