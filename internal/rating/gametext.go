package rating

import (
	"fmt"
	"strings"
	"time"

	"github.com/holychess/anarchess/internal/session"
	"github.com/holychess/anarchess/pkg/gamedto"
)

// buildGameText renders a PGN-style archive text from the recorded SAN list.
// The movetext is not standard PGN (variant moves like O-O-O-O and decay
// spawns have no standard form) but keeps the familiar header/movetext shape.
func buildGameText(rec *session.GameRecord, res gamedto.GameResult) string {
	var b strings.Builder
	date := res.EndedAt
	if date.IsZero() {
		date = time.Now()
	}
	b.WriteString("[Event \"Anarchess\"]\n")
	if strings.TrimSpace(rec.Source) != "" {
		b.WriteString(fmt.Sprintf("[Site \"%s\"]\n", sanitizeTag(rec.Source)))
	}
	b.WriteString(fmt.Sprintf("[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day()))
	b.WriteString(fmt.Sprintf("[White \"%s\"]\n", sanitizeTag(rec.White.Name)))
	b.WriteString(fmt.Sprintf("[Black \"%s\"]\n", sanitizeTag(rec.Black.Name)))
	b.WriteString(fmt.Sprintf("[TimeControl \"%s\"]\n", formatTimeControl(rec)))
	b.WriteString(fmt.Sprintf("[Termination \"%s\"]\n", sanitizeTag(res.Method)))
	tag := resultTag(res)
	b.WriteString(fmt.Sprintf("[Result \"%s\"]\n\n", tag))

	for i := 0; i < len(rec.History); i += 2 {
		turn := (i / 2) + 1
		b.WriteString(fmt.Sprintf("%d. %s", turn, strings.TrimSpace(rec.History[i].SAN)))
		if i+1 < len(rec.History) {
			b.WriteString(" ")
			b.WriteString(strings.TrimSpace(rec.History[i+1].SAN))
		}
		b.WriteString(" ")
	}
	b.WriteString(tag)
	return b.String()
}

func resultTag(res gamedto.GameResult) string {
	switch res.Winner {
	case "white":
		return "1-0"
	case "black":
		return "0-1"
	}
	if res.Method == gamedto.MethodAborted {
		return "*"
	}
	return "1/2-1/2"
}

func sanitizeTag(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}

func formatTimeControl(rec *session.GameRecord) string {
	return fmt.Sprintf("%d+%d",
		int(rec.TimeControl.Base.Seconds()),
		int(rec.TimeControl.Increment.Seconds()))
}
