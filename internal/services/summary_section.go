package services

import "strings"

// Markers delimiting the bot-owned section of an issue body
const (
	SummaryStartMarker = "<!-- summary start -->"
	SummaryEndMarker   = "<!-- summary end -->"
)

// ReplaceSummarySection returns body with its summary section set to
// summary. Text outside an existing section is preserved byte for byte. A
// body without a section gets one appended on its own line, so a newline is
// added once when body does not already end with one. Applying it twice with
// the same summary yields the same body.
func ReplaceSummarySection(body, summary string) string {
	summary = stripMarkers(summary)

	start := strings.Index(body, SummaryStartMarker)
	if start < 0 {
		var sb strings.Builder
		sb.WriteString(body)
		if body != "" && !strings.HasSuffix(body, "\n") {
			sb.WriteString("\n")
		}
		sb.WriteString(SummaryStartMarker + "\n" + summary + "\n" + SummaryEndMarker)
		return sb.String()
	}

	afterStart := start + len(SummaryStartMarker)
	end := strings.Index(body[afterStart:], SummaryEndMarker)
	if end < 0 {
		return body[:afterStart] + "\n" + summary + "\n" + SummaryEndMarker
	}
	return body[:afterStart] + "\n" + summary + "\n" + body[afterStart+end:]
}

// stripMarkers removes marker text from s until none remains, since one
// removal can join the halves of another marker.
func stripMarkers(s string) string {
	for strings.Contains(s, SummaryStartMarker) || strings.Contains(s, SummaryEndMarker) {
		s = strings.ReplaceAll(s, SummaryStartMarker, "")
		s = strings.ReplaceAll(s, SummaryEndMarker, "")
	}
	return s
}
