package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ResTime is a platform timestamp. The API omits the zone designator on some
// fields; those values are UTC.
type ResTime struct {
	time.Time
}

func NewResTime(t time.Time) ResTime {
	return ResTime{Time: t.UTC()}
}

// ParseResTime parses an RFC-3339 timestamp, appending "Z" when the value
// carries no zone designator.
func ParseResTime(value string) (ResTime, error) {
	if !hasZone(value) {
		value += "Z"
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return ResTime{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return ResTime{Time: t.UTC()}, nil
}

func hasZone(value string) bool {
	if strings.HasSuffix(value, "Z") || strings.HasSuffix(value, "z") {
		return true
	}
	idx := strings.IndexAny(value, "Tt")
	if idx < 0 {
		return false
	}
	return strings.ContainsAny(value[idx:], "+-")
}

func (t ResTime) String() string {
	return t.UTC().Format(time.RFC3339Nano)
}

func (t ResTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *ResTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = ResTime{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := ParseResTime(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
