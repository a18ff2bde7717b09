package sse

import (
	"encoding/json"

	"github.com/kasuganosora/stashcount/game/ownership"
)

// eventName picks the SSE event name from the payload's kind field.
func eventName(payload string) string {
	var ev struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal([]byte(payload), &ev); err != nil || ev.Kind == "" {
		return "message"
	}
	switch ev.Kind {
	case ownership.EventHover, ownership.EventStash:
		return ev.Kind
	}
	return "message"
}
