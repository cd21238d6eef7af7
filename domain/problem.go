package domain

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Problem is the structured error payload the API returns with non-2xx responses.
type Problem struct {
	Code    float64        `json:"code" yaml:"code"`       // machine readable code, e.g. 404.1
	Message string         `json:"message" yaml:"message"` // human readable message
	Details map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
}

func (p Problem) Error() string {
	return fmt.Sprintf("problem %v: %s", p.Code, p.Message)
}

// Is reports whether the problem carries the given code.
func (p Problem) Is(code float64) bool {
	return p.Code == code
}

// ParseProblem returns the problem in body when body is a JSON object with a
// numeric "code" and a string "message". Anything else is not a problem.
func ParseProblem(body []byte) (Problem, bool) {
	if !gjson.ValidBytes(body) {
		return Problem{}, false
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return Problem{}, false
	}
	code := parsed.Get("code")
	message := parsed.Get("message")
	if code.Type != gjson.Number || message.Type != gjson.String {
		return Problem{}, false
	}

	problem := Problem{
		Code:    code.Float(),
		Message: message.String(),
	}
	if details := parsed.Get("details"); details.IsObject() {
		if m, ok := details.Value().(map[string]any); ok {
			problem.Details = m
		}
	}
	return problem, true
}
