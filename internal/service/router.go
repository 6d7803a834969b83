package service

import (
	"sort"
	"strings"
)

// Intent is the tool category a message most likely asks for.
type Intent string

const (
	IntentGeneral       Intent = "general"
	IntentEntertainment Intent = "entertainment"
	IntentWeather       Intent = "weather"
	IntentTime          Intent = "time"
)

var intentKeywords = map[Intent][]string{
	IntentEntertainment: {
		"joke", "funny", "laugh", "humor", "humour", "comedy", "amusing",
		"make me smile", "cheer me up", "pun",
	},
	IntentWeather: {
		"weather", "temperature", "forecast", "rain", "sunny", "snow",
		"humid", "degrees", "celsius", "cloudy",
	},
	IntentTime: {
		"time", "clock", "timezone", "time zone", "what day", "today",
		"date", "hour",
	},
}

// intentOrder breaks score ties deterministically.
var intentOrder = []Intent{IntentEntertainment, IntentWeather, IntentTime}

// RoutingResult contains intent routing info
type RoutingResult struct {
	Intent     Intent
	Confidence float64
	Scores     map[Intent]int
	Matched    []string
	Reasoning  string
}

// IntentRouter scores a message against keyword lists for each tool category
type IntentRouter struct{}

func NewIntentRouter() *IntentRouter {
	return &IntentRouter{}
}

// Route analyses the message and returns the best matching intent
func (r *IntentRouter) Route(message string) RoutingResult {
	lower := " " + strings.ToLower(message) + " "

	scores := make(map[Intent]int, len(intentKeywords))
	var matched []string
	total := 0
	for intent, kws := range intentKeywords {
		for _, kw := range kws {
			if containsWord(lower, kw) {
				scores[intent]++
				matched = append(matched, kw)
				total++
			}
		}
	}
	sort.Strings(matched)

	if total == 0 {
		return RoutingResult{
			Intent:     IntentGeneral,
			Confidence: 0.5,
			Scores:     scores,
			Reasoning:  "no tool keywords, treating as general conversation",
		}
	}

	best := IntentGeneral
	bestScore := 0
	for _, intent := range intentOrder {
		if scores[intent] > bestScore {
			best, bestScore = intent, scores[intent]
		}
	}
	return RoutingResult{
		Intent:     best,
		Confidence: float64(bestScore) / float64(total),
		Scores:     scores,
		Matched:    matched,
		Reasoning:  "message contains " + string(best) + " keywords",
	}
}

// IsJokeRequest reports whether message asks for a joke.
func (r *IntentRouter) IsJokeRequest(message string) bool {
	return r.Route(message).Intent == IntentEntertainment
}

// containsWord matches kw, or its plural with a trailing "s", at word
// boundaries. lower is padded with spaces.
func containsWord(lower, kw string) bool {
	idx := 0
	for {
		i := strings.Index(lower[idx:], kw)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(kw)
		if end < len(lower) && lower[end] == 's' {
			end++
		}
		if !isLetter(lower[start-1]) && (end >= len(lower) || !isLetter(lower[end])) {
			return true
		}
		idx = start + 1
	}
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z'
}
