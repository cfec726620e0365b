package harvest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
	"unicode"
)

// Artifact is the normalized output of one harvest run. It is written once
// at the end of collection and never mutated afterwards.
type Artifact struct {
	Query         string
	FetchedAt     time.Time
	TotalComments int
	VideoCount    int
	Units         []Unit
}

// Normalize converts a run's result into an artifact stamped with now.
func Normalize(query string, result *Result, now time.Time) Artifact {
	return Artifact{
		Query:         query,
		FetchedAt:     now,
		TotalComments: result.TotalComments(),
		VideoCount:    result.UnitCount(),
		Units:         result.Units(),
	}
}

// MarshalJSON emits the downstream schema with commentsByVideo keys in
// discovery order. encoding/json sorts map keys, so the object is built by
// hand.
func (a Artifact) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	writeField := func(name string, value any) error {
		key, err := json.Marshal(name)
		if err != nil {
			return err
		}
		val, err := json.Marshal(value)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
		return nil
	}

	if err := writeField("query", a.Query); err != nil {
		return nil, err
	}
	buf.WriteByte(',')
	if err := writeField("fetchedAt", a.FetchedAt.Format(time.RFC3339)); err != nil {
		return nil, err
	}
	buf.WriteByte(',')
	if err := writeField("totalComments", a.TotalComments); err != nil {
		return nil, err
	}
	buf.WriteByte(',')
	if err := writeField("videoCount", a.VideoCount); err != nil {
		return nil, err
	}

	buf.WriteString(`,"commentsByVideo":{`)
	for i, u := range a.Units {
		if i > 0 {
			buf.WriteByte(',')
		}
		comments := u.Comments
		if comments == nil {
			comments = []string{}
		}
		if err := writeField(u.Label, comments); err != nil {
			return nil, err
		}
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// SanitizeQuery reduces a query to the filename-safe segment used in
// artifact names: every non-alphanumeric rune is dropped and the remainder
// truncated to 30 characters. May return the empty string.
func SanitizeQuery(query string) string {
	out := make([]rune, 0, len(query))
	for _, r := range query {
		if r > unicode.MaxASCII {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out = append(out, r)
		}
		if len(out) == 30 {
			break
		}
	}
	return string(out)
}

// ArtifactFileName is the deterministic per-run name:
// <source>_<sanitized-query>_<date>.json. Runs on the same day for the same
// sanitized query produce the same name and silently overwrite.
func ArtifactFileName(source, query string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%s.json", source, SanitizeQuery(query), now.Format("2006-01-02"))
}
