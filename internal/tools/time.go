package tools

import (
	"context"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

type TimeInput struct {
	TimezoneName string `json:"timezone_name,omitempty" jsonschema:"description=IANA timezone name such as UTC or Europe/London,default=UTC"`
}

// TimeTool reports the current time in a timezone. now defaults to time.Now.
func TimeTool(now func() time.Time) Tool {
	if now == nil {
		now = time.Now
	}
	return NewTool("time",
		"Get the current time in a timezone. Defaults to UTC.",
		[]string{"utility", "time"},
		func(_ context.Context, in TimeInput) string {
			name := strings.TrimSpace(in.TimezoneName)
			if name == "" {
				name = "UTC"
			}
			var loc *time.Location
			if strings.EqualFold(name, "UTC") {
				loc = time.UTC
			} else {
				var err error
				loc, err = time.LoadLocation(name)
				if err != nil {
					return fmt.Sprintf("Unknown timezone: %s. Try 'UTC', 'US/Eastern', 'Europe/London', etc.", name)
				}
			}
			return fmt.Sprintf("Current time in %s: %s", name, now().In(loc).Format("2006-01-02 15:04:05 MST"))
		})
}

// DateTool reports today's date in local time.
func DateTool(now func() time.Time) Tool {
	if now == nil {
		now = time.Now
	}
	return NewTool("date",
		"Get today's date.",
		[]string{"utility", "time"},
		func(_ context.Context, _ NoInput) string {
			t := now()
			return fmt.Sprintf("Today is %s, %s", t.Weekday(), t.Format("2006-01-02"))
		})
}
