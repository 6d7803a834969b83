package service_test

import (
	"testing"

	"github.com/dspybridge/dspybridge/internal/service"
)

func TestIntentRouter(t *testing.T) {
	r := service.NewIntentRouter()

	tests := []struct {
		prompt string
		want   service.Intent
	}{
		{"Tell me a joke", service.IntentEntertainment},
		{"make me laugh", service.IntentEntertainment},
		{"I want some jokes please", service.IntentEntertainment},
		{"tell me a funny joke about the weather", service.IntentEntertainment},
		{"What's the weather in Paris?", service.IntentWeather},
		{"will it rain tomorrow", service.IntentWeather},
		{"what time is it in Tokyo", service.IntentTime},
		{"which timezone is London in", service.IntentTime},
		{"hello there", service.IntentGeneral},
		{"explain quantum computing", service.IntentGeneral},
	}
	for _, tt := range tests {
		res := r.Route(tt.prompt)
		if res.Intent != tt.want {
			t.Errorf("Route(%q) = %q, want %q (confidence %.2f: %s)",
				tt.prompt, res.Intent, tt.want, res.Confidence, res.Reasoning)
		}
	}
}

func TestIntentRouter_WordBoundaries(t *testing.T) {
	r := service.NewIntentRouter()

	// "pun" inside "punctual" and "time" inside "sometimes" must not match.
	for _, p := range []string{"be punctual", "sometimes I wonder", "a brainstorm session"} {
		if res := r.Route(p); res.Intent != service.IntentGeneral {
			t.Errorf("Route(%q) = %q, want general (matched %v)", p, res.Intent, res.Matched)
		}
	}
}

func TestIntentRouter_Confidence(t *testing.T) {
	r := service.NewIntentRouter()

	general := r.Route("hello there")
	if general.Confidence != 0.5 {
		t.Errorf("general confidence = %.2f, want 0.5", general.Confidence)
	}
	if len(general.Matched) != 0 {
		t.Errorf("general matched = %v, want none", general.Matched)
	}

	joke := r.Route("tell me a joke")
	if joke.Confidence != 1.0 {
		t.Errorf("single-intent confidence = %.2f, want 1.0", joke.Confidence)
	}
	if joke.Scores[service.IntentEntertainment] != 1 {
		t.Errorf("entertainment score = %d, want 1", joke.Scores[service.IntentEntertainment])
	}
}

func TestIsJokeRequest(t *testing.T) {
	r := service.NewIntentRouter()
	if !r.IsJokeRequest("got any good jokes?") {
		t.Error("expected joke request")
	}
	if r.IsJokeRequest("what's the forecast") {
		t.Error("weather request treated as joke")
	}
}
