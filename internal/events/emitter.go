package events

import (
	"context"
	"encoding/json"
	"log"
)

var Emit = func(ctx context.Context, name string, evt StepEvent) {}

// EnableBrokerEmitter routes events into the broker (for SSE fan-out) and
// mirrors errors to the process log.
func EnableBrokerEmitter(broker *Broker) {
	Emit = func(ctx context.Context, name string, evt StepEvent) {
		if evt.SessionKey == "" {
			if session := SessionFromContext(ctx); session != "" {
				evt.SessionKey = session
			}
		}

		broker.Publish(name, evt)

		if evt.Type == EventError {
			logEvent(name, evt)
		}
	}
}

// EnableLogEmitter writes every event to the process log. Used by CLI
// commands that run without a server.
func EnableLogEmitter() {
	Emit = func(ctx context.Context, name string, evt StepEvent) {
		if evt.SessionKey == "" {
			if session := SessionFromContext(ctx); session != "" {
				evt.SessionKey = session
			}
		}
		logEvent(name, evt)
	}
}

func SetCustomEmitter(f func(ctx context.Context, name string, evt StepEvent)) {
	if f == nil {
		Emit = func(context.Context, string, StepEvent) {}
		return
	}
	Emit = func(ctx context.Context, name string, evt StepEvent) {
		if evt.SessionKey == "" {
			if session := SessionFromContext(ctx); session != "" {
				evt.SessionKey = session
			}
		}
		f(ctx, name, evt)
	}
}

func logEvent(name string, evt StepEvent) {
	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("events: failed to marshal event %s: %v", name, err)
		return
	}
	log.Printf("%s %s", name, data)
}
