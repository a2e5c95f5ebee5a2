package realtime

import (
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

const eventSource = "testboard.engine"

// EventType is the CloudEvents type for a collection snapshot.
func EventType(c Collection) string {
	return fmt.Sprintf("io.testboard.%s.snapshot", c)
}

// ToEvent wraps a snapshot as a CloudEvent with a revision extension.
func ToEvent(s Snapshot) (cloudevents.Event, error) {
	e := cloudevents.NewEvent()
	e.SetID(uuid.NewString())
	e.SetSource(eventSource)
	e.SetType(EventType(s.Collection))
	e.SetSubject(string(s.Collection))
	e.SetTime(time.Now())
	e.SetExtension("revision", fmt.Sprintf("%d", s.Revision))
	if err := e.SetData(cloudevents.ApplicationJSON, s); err != nil {
		return e, fmt.Errorf("set event data: %w", err)
	}
	return e, nil
}
