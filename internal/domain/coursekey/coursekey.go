// Package coursekey parses Open edX course identifiers.
//
// Two spellings are accepted:
//
//	course-v1:ORG+COURSE+RUN   (current)
//	ORG/COURSE/RUN             (deprecated slash form)
package coursekey

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrInvalidKey = errors.New("invalid course key")

const v1Prefix = "course-v1:"

var (
	partRe = regexp.MustCompile(`^[\w\-~.:]+$`)
)

type CourseKey struct {
	Org        string
	Course     string
	Run        string
	Deprecated bool
}

// String renders the key the way the LMS stores it.
func (k CourseKey) String() string {
	if k.Deprecated {
		return k.Org + "/" + k.Course + "/" + k.Run
	}
	return v1Prefix + k.Org + "+" + k.Course + "+" + k.Run
}

func Parse(raw string) (CourseKey, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return CourseKey{}, fmt.Errorf("%w: empty", ErrInvalidKey)
	}

	var parts []string
	deprecated := false
	switch {
	case strings.HasPrefix(s, v1Prefix):
		parts = strings.Split(strings.TrimPrefix(s, v1Prefix), "+")
	case strings.Contains(s, "/"):
		parts = strings.Split(s, "/")
		deprecated = true
	default:
		return CourseKey{}, fmt.Errorf("%w: %q", ErrInvalidKey, raw)
	}

	if len(parts) != 3 {
		return CourseKey{}, fmt.Errorf("%w: %q", ErrInvalidKey, raw)
	}
	for _, p := range parts {
		if !partRe.MatchString(p) {
			return CourseKey{}, fmt.Errorf("%w: %q", ErrInvalidKey, raw)
		}
	}

	return CourseKey{
		Org:        parts[0],
		Course:     parts[1],
		Run:        parts[2],
		Deprecated: deprecated,
	}, nil
}

// Parser adapts Parse to the usecase CourseKeyParser port.
type Parser struct{}

func (Parser) Parse(raw string) (CourseKey, error) {
	return Parse(raw)
}
