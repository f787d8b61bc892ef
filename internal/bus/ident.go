package bus

import (
	"strings"
	"unique"

	"anttrader/internal/model"
	"anttrader/pkg/exception"

	"github.com/yanun0323/errors"
)

// mstr is an interned string. Equality and hashing compare a single pointer.
type mstr struct {
	h unique.Handle[string]
}

func intern(value string) mstr {
	return mstr{h: unique.Make(value)}
}

// Value returns the underlying string, or "" for the zero value.
func (s mstr) Value() string {
	if s.h == (unique.Handle[string]{}) {
		return ""
	}
	return s.h.Value()
}

func (s mstr) String() string {
	return s.Value()
}

// IsZero reports whether the identifier was never assigned.
func (s mstr) IsZero() bool {
	return s.h == (unique.Handle[string]{})
}

func (s mstr) compare(other mstr) int {
	if s.h == other.h {
		return 0
	}
	return strings.Compare(s.Value(), other.Value())
}

// Pattern is a subscription pattern. It may contain the wildcards '*' and '?'.
type Pattern struct{ mstr }

// Topic is a fully qualified topic a message is published under.
type Topic struct{ mstr }

// Endpoint is a fully qualified address for direct delivery.
type Endpoint struct{ mstr }

// NewPattern interns value as a Pattern. Patterns are not validated.
func NewPattern(value string) Pattern {
	return Pattern{intern(value)}
}

// NewTopic validates and interns value as a Topic.
func NewTopic(value string) (Topic, error) {
	if err := checkFullyQualified(value, "Topic"); err != nil {
		return Topic{}, err
	}
	return Topic{intern(value)}, nil
}

// MustTopic is like NewTopic but panics on invalid input.
func MustTopic(value string) Topic {
	t, err := NewTopic(value)
	if err != nil {
		panic(err)
	}
	return t
}

// NewEndpoint validates and interns value as an Endpoint.
func NewEndpoint(value string) (Endpoint, error) {
	if err := checkFullyQualified(value, "Endpoint"); err != nil {
		return Endpoint{}, err
	}
	return Endpoint{intern(value)}, nil
}

// MustEndpoint is like NewEndpoint but panics on invalid input.
func MustEndpoint(value string) Endpoint {
	e, err := NewEndpoint(value)
	if err != nil {
		panic(err)
	}
	return e
}

// Pattern returns the exact-match pattern for t.
func (t Topic) Pattern() Pattern {
	return Pattern(t)
}

// Matches reports whether topic satisfies p.
func (p Pattern) Matches(topic Topic) bool {
	if p.h == topic.h {
		return true
	}
	return isMatching(topic.Value(), p.Value())
}

func checkFullyQualified(value, kind string) error {
	if err := model.CheckValidString(value, kind); err != nil {
		return err
	}

	if strings.ContainsAny(value, "*?") {
		return errors.Wrapf(exception.ErrInvalidIdentifier, "%s contained invalid characters, was '%s'", kind, value)
	}

	return nil
}
