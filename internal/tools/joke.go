package tools

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// JokeTool fetches a random joke from JokeAPI.
func JokeTool(client *http.Client, baseURL string) Tool {
	baseURL = strings.TrimRight(baseURL, "/")
	return NewTool("joke",
		"Get a random joke. Use this when the user asks for something funny.",
		[]string{"entertainment", "fun"},
		func(ctx context.Context, _ NoInput) string {
			data, err := getJSON(ctx, client, baseURL+"/joke/Any", nil)
			if err != nil {
				log.Warn().Err(err).Msg("joke lookup failed")
				return "Sorry, I couldn't fetch a joke right now."
			}
			if data.Get("error").Bool() {
				return "Sorry, I couldn't fetch a joke right now."
			}

			if data.Get("type").String() == "twopart" {
				setup := data.Get("setup").String()
				delivery := data.Get("delivery").String()
				if setup != "" && delivery != "" {
					return setup + "\n" + delivery
				}
			}
			if joke := data.Get("joke").String(); joke != "" {
				return joke
			}
			return "Sorry, no joke available right now."
		})
}

// DadJokeTool fetches a random dad joke from icanhazdadjoke.
func DadJokeTool(client *http.Client, baseURL string) Tool {
	baseURL = strings.TrimRight(baseURL, "/")
	header := http.Header{"Accept": []string{"application/json"}}
	return NewTool("dad_joke",
		"Get a random dad joke.",
		[]string{"entertainment", "fun"},
		func(ctx context.Context, _ NoInput) string {
			data, err := getJSON(ctx, client, baseURL+"/", header)
			if err != nil {
				log.Warn().Err(err).Msg("dad joke lookup failed")
				return "Sorry, I couldn't fetch a dad joke right now."
			}
			if joke := data.Get("joke").String(); joke != "" {
				return joke
			}
			return "Sorry, I couldn't fetch a dad joke right now."
		})
}
