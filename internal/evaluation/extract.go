package evaluation

import (
	"encoding/json"
	"errors"
	"strings"
)

var errNoObject = errors.New("no JSON object in reply")

// ExtractObject returns the first syntactically complete JSON object in a
// model reply, ignoring any prose around it. If no candidate decodes, the
// whole reply is parsed as a last attempt.
func ExtractObject(reply string) (map[string]json.RawMessage, error) {
	for i := 0; i < len(reply); i++ {
		if reply[i] != '{' {
			continue
		}
		var obj map[string]json.RawMessage
		dec := json.NewDecoder(strings.NewReader(reply[i:]))
		if err := dec.Decode(&obj); err == nil && obj != nil {
			return obj, nil
		}
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(reply)), &obj); err != nil {
		return nil, errors.Join(errNoObject, err)
	}
	if obj == nil {
		return nil, errNoObject
	}
	return obj, nil
}

// Normalize keeps the entries of raw that name one of skills and hold an
// object with an integer score in range. Everything else is reported in
// skipped.
func Normalize(raw map[string]json.RawMessage, skills []string) (v Verdict, skipped []string) {
	known := make(map[string]bool, len(skills))
	for _, name := range skills {
		known[name] = true
	}

	v = Verdict{}
	for key, msg := range raw {
		if !known[key] {
			skipped = append(skipped, key)
			continue
		}
		s, ok := decodeSkillScore(msg)
		if !ok {
			skipped = append(skipped, key)
			continue
		}
		v[key] = s
	}
	return v, skipped
}

func decodeSkillScore(msg json.RawMessage) (SkillScore, bool) {
	trimmed := strings.TrimSpace(string(msg))
	if !strings.HasPrefix(trimmed, "{") {
		return SkillScore{}, false
	}
	var s SkillScore
	if err := json.Unmarshal(msg, &s); err != nil {
		return SkillScore{}, false
	}
	if s.Score < MinScore || s.Score > MaxScore {
		return SkillScore{}, false
	}
	return s, true
}
