// Package kafka carries the template-usage telemetry stream: the API
// publishes a small event whenever a template is sent to a client, and the
// worker consumes the stream to bump usage counters out of the request path.
package kafka

import (
	"encoding/json"
	"time"

	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

// DefaultUsageTopic is used when configuration leaves the topic blank.
const DefaultUsageTopic = "chatbuddy.template.usage"

// UsageEvent is one template-use occurrence.
type UsageEvent struct {
	OwnerID    common.OwnerID `json:"owner_id"`
	TemplateID common.ID      `json:"template_id"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Validate rejects events that could not be attributed.
func (e *UsageEvent) Validate() error {
	if e.OwnerID == "" {
		return errors.InvalidParam("usage event requires an owner")
	}
	if e.TemplateID == "" {
		return errors.InvalidParam("usage event requires a template id")
	}
	return nil
}

// Encode renders the event payload.  The template ID doubles as the message
// key so per-template events stay ordered within a partition.
func (e *UsageEvent) Encode() (key, value []byte, err error) {
	if err := e.Validate(); err != nil {
		return nil, nil, err
	}
	value, err = json.Marshal(e)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeSerialization, "encode usage event")
	}
	return []byte(e.TemplateID), value, nil
}

// DecodeUsageEvent parses one consumed payload.
func DecodeUsageEvent(value []byte) (*UsageEvent, error) {
	var e UsageEvent
	if err := json.Unmarshal(value, &e); err != nil {
		return nil, errors.Wrap(err, errors.CodeSerialization, "decode usage event")
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
