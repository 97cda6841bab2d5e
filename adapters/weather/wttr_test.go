package weather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/satriahrh/cocoa-fruit/assistant/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJ1 = `{
  "current_condition": [{
    "temp_C": "21", "FeelsLikeC": "20", "humidity": "48", "windspeedKmph": "11",
    "weatherCode": "116", "weatherDesc": [{"value": "Partly cloudy"}]
  }],
  "nearest_area": [{"areaName": [{"value": "Beijing"}], "country": [{"value": "China"}]}],
  "weather": [
    {"date": "2024-05-06", "maxtempC": "25", "mintempC": "14", "avgHumidity": "40",
     "hourly": [{"weatherCode": "113", "humidity": "30", "weatherDesc": [{"value": "Sunny"}]},
                {"weatherCode": "296", "humidity": "70", "weatherDesc": [{"value": "Light rain"}]},
                {"weatherCode": "113", "humidity": "35", "weatherDesc": [{"value": "Clear"}]}]},
    {"date": "2024-05-07", "maxtempC": "19", "mintempC": "11", "avgHumidity": "",
     "hourly": [{"weatherCode": "122", "humidity": "80", "weatherDesc": [{"value": "Overcast"}]}]},
    {"date": "2024-05-08", "maxtempC": "22", "mintempC": "13", "avgHumidity": "50",
     "hourly": [{"weatherCode": "113", "humidity": "50", "weatherDesc": [{"value": "Sunny"}]}]}
  ]
}`

func newTestClient(t *testing.T, h http.HandlerFunc) *WttrClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewWttrClient(srv.URL)
	c.now = func() time.Time { return time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC) }
	return c
}

func TestCurrent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Beijing", r.URL.Path)
		assert.Equal(t, "j1", r.URL.Query().Get("format"))
		fmt.Fprint(w, sampleJ1)
	})

	snap, err := c.Current(context.Background(), " Beijing ")

	require.NoError(t, err)
	assert.Equal(t, domain.WeatherSnapshot{
		City:        "Beijing",
		Country:     "China",
		Temperature: 21,
		FeelsLike:   20,
		Humidity:    48,
		WindSpeed:   11,
		Condition:   "Partly cloudy",
		Icon:        "116",
		UpdatedAt:   time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC),
	}, snap)
}

func TestForecast(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sampleJ1)
	})

	days, err := c.Forecast(context.Background(), "Beijing", 2)

	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "Monday", days[0].DayOfWeek)
	assert.Equal(t, "Light rain", days[0].Condition)
	assert.Equal(t, "296", days[0].Icon)
	assert.Equal(t, 40, days[0].Humidity)
	assert.False(t, days[0].IsGoodWeather)
	assert.Equal(t, 14.0, days[0].TempMin)
	assert.Equal(t, 25.0, days[0].TempMax)

	assert.Equal(t, "Tuesday", days[1].DayOfWeek)
	assert.Equal(t, 80, days[1].Humidity)
	assert.False(t, days[1].IsGoodWeather)
}

func TestCityNotFound(t *testing.T) {
	for name, h := range map[string]http.HandlerFunc{
		"404": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Unknown location", http.StatusNotFound)
		},
		"empty area": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"current_condition": [{}], "nearest_area": []}`)
		},
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, h)
			_, err := c.Current(context.Background(), "Atlantis")
			assert.ErrorIs(t, err, domain.ErrCityNotFound)
		})
	}
}

func TestAPIErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.Current(context.Background(), "Paris")
	var apiErr *domain.WeatherAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.False(t, apiErr.Timeout)
	assert.Contains(t, err.Error(), "502")

	c = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>not json</html>")
	})
	_, err = c.Current(context.Background(), "Paris")
	require.ErrorAs(t, err, &apiErr)
}

func TestTimeoutIsFlagged(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Current(ctx, "Paris")

	var apiErr *domain.WeatherAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Timeout)
}

func TestLookupFetchesOnce(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, sampleJ1)
	})

	report, err := c.Lookup(context.Background(), "Beijing", 5)

	require.NoError(t, err)
	assert.Equal(t, "Partly cloudy", report.Current.Condition)
	assert.Equal(t, "China", report.Current.Country)
	assert.Len(t, report.Forecast, 3)
	assert.Equal(t, "Light rain", report.Forecast[0].Condition)
	assert.Equal(t, int32(1), calls.Load())
}

func TestLookupWithoutForecastKeepsSnapshot(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"current_condition": [{"temp_C": "9", "weatherDesc": [{"value": "Mist"}]}],
			"nearest_area": [{"country": [{"value": "UK"}]}]}`)
	})

	report, err := c.Lookup(context.Background(), "London", 3)

	require.NoError(t, err)
	assert.Equal(t, "Mist", report.Current.Condition)
	assert.Equal(t, 9.0, report.Current.Temperature)
	assert.Empty(t, report.Forecast)
}

func TestLookupFailsWithoutSnapshot(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})

	_, err := c.Lookup(context.Background(), "Atlantis", 3)

	assert.True(t, errors.Is(err, domain.ErrCityNotFound))
}

func TestIsGoodWeather(t *testing.T) {
	tests := map[string]bool{
		"Sunny":          true,
		"Partly cloudy":  true,
		"Cloudy":         false,
		"Light rain":     false,
		"Thunderstorm":   false,
		"晴转多云":           true,
		"小雨":             false,
		"Something new":  true,
		"Clear with fog": true,
	}
	for cond, want := range tests {
		assert.Equal(t, want, IsGoodWeather(cond), cond)
	}
}

func TestClampDays(t *testing.T) {
	assert.Equal(t, 1, ClampDays(0))
	assert.Equal(t, 1, ClampDays(-3))
	assert.Equal(t, 5, ClampDays(5))
	assert.Equal(t, 7, ClampDays(30))
	assert.True(t, strings.HasPrefix(DefaultBaseURL, "https://"))
}
