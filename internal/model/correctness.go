package model

import (
	"unicode"

	"anttrader/pkg/exception"

	"github.com/yanun0323/errors"
)

// CheckValidString reports whether s is usable as an identifier: non-empty,
// ASCII only and not entirely whitespace. param names the value in the error.
func CheckValidString(s, param string) error {
	if len(s) == 0 {
		return errors.Wrapf(exception.ErrInvalidIdentifier, "invalid string for '%s', was empty", param)
	}

	hasNonWhitespace := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c > unicode.MaxASCII {
			return errors.Wrapf(exception.ErrInvalidIdentifier, "invalid string for '%s' contained a non-ASCII char, was '%s'", param, s)
		}
		if !unicode.IsSpace(rune(c)) {
			hasNonWhitespace = true
		}
	}

	if !hasNonWhitespace {
		return errors.Wrapf(exception.ErrInvalidIdentifier, "invalid string for '%s', was all whitespace", param)
	}

	return nil
}
