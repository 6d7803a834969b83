package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

type WeatherInput struct {
	City string `json:"city" jsonschema:"required,description=Name of the city to get the current weather for"`
}

// WeatherTool reports current conditions from the OpenWeatherMap API.
func WeatherTool(client *http.Client, baseURL, apiKey string) Tool {
	baseURL = strings.TrimRight(baseURL, "/")
	return NewTool("weather",
		"Get the current weather for a city. Returns temperature in Celsius and a short description.",
		[]string{"weather", "utility"},
		func(ctx context.Context, in WeatherInput) string {
			city := strings.TrimSpace(in.City)
			if city == "" {
				return "Sorry, I need a city name to look up the weather."
			}
			if apiKey == "" {
				return "Sorry, the weather service is not configured."
			}

			q := url.Values{}
			q.Set("q", city)
			q.Set("appid", apiKey)
			q.Set("units", "metric")

			data, err := getJSON(ctx, client, baseURL+"/weather?"+q.Encode(), nil)
			if err != nil {
				log.Warn().Err(err).Str("city", city).Msg("weather lookup failed")
				return fmt.Sprintf("Sorry, I couldn't fetch the weather for %s.", city)
			}
			// OpenWeatherMap reports cod as a number on success and a string on some errors
			if data.Get("cod").String() != "200" {
				return fmt.Sprintf("Sorry, I couldn't fetch the weather for %s.", city)
			}
			temp := data.Get("main.temp")
			desc := data.Get("weather.0.description")
			if !temp.Exists() || !desc.Exists() {
				return fmt.Sprintf("Sorry, I couldn't fetch the weather for %s.", city)
			}
			return fmt.Sprintf("The weather in %s is %s°C with %s.", city, temp.Raw, desc.String())
		})
}
