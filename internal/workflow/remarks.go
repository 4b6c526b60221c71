package workflow

import (
	"fmt"
	"strings"
	"time"
)

// AppendRemark adds a timestamped entry to a remark slot. Slots are append only.
func AppendRemark(existing, actor, text string, at time.Time) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return existing
	}
	if actor == "" {
		actor = "unknown"
	}
	entry := fmt.Sprintf("[%s] %s: %s", at.UTC().Format(time.RFC3339), actor, text)
	if existing == "" {
		return entry
	}
	return existing + "\n" + entry
}
