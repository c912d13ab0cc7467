package email

import (
	"fmt"
	"strings"
	"time"
)

// RunSummary is what a run report mentions.
type RunSummary struct {
	RunID       string
	Status      string
	StartedAt   time.Time
	FinishedAt  time.Time
	Requested   int
	Fetched     int
	Cities      []string
	PerCity     map[string]int
	RemotePath  string
	Error       string
	LocalOutput []string
}

// RunReport renders s as a message to recipients.
func RunReport(recipients []string, s RunSummary) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s finished with status %s.\n\n", s.RunID, s.Status)
	fmt.Fprintf(&b, "Started:  %s\n", s.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Finished: %s (%s)\n", s.FinishedAt.Format(time.RFC3339), s.FinishedAt.Sub(s.StartedAt).Round(time.Second))
	fmt.Fprintf(&b, "Fetched %d of %d city-days.\n\n", s.Fetched, s.Requested)

	for _, city := range s.Cities {
		fmt.Fprintf(&b, "  %-20s %d\n", city, s.PerCity[city])
	}

	fmt.Fprintf(&b, "\nRemote path: %s\n", s.RemotePath)
	if len(s.LocalOutput) > 0 {
		fmt.Fprintf(&b, "Local copies: %s\n", strings.Join(s.LocalOutput, ", "))
	}
	if s.Error != "" {
		fmt.Fprintf(&b, "\nError: %s\n", s.Error)
	}

	return Message{
		To:      recipients,
		Subject: fmt.Sprintf("Weather history run %s: %s", shortID(s.RunID), s.Status),
		Body:    b.String(),
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
