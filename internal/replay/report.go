package replay

import (
	"fmt"
	"io"
)

// WriteNDJSON writes every message the server sent, one per line.
func WriteNDJSON(w io.Writer, res Result) error {
	for _, msg := range res.Sent {
		data, err := msg.MarshalJSON()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return err
		}
	}
	return nil
}

// Summary is a one-line account of the replay.
func Summary(res Result) string {
	done, failed, responses, notifications := 0, 0, 0, 0
	for _, s := range res.Steps {
		switch s.Status {
		case StatusDone:
			done++
		case StatusError:
			failed++
		}
		responses += s.Responses
		notifications += s.Notifications
	}
	out := fmt.Sprintf("%d messages: %d ok, %d failed; sent %d responses, %d notifications",
		len(res.Steps), done, failed, responses, notifications)
	if res.Unread > 0 {
		out += fmt.Sprintf("; %d unread", res.Unread)
	}
	return out
}
