package shell

import (
	"strings"

	"github.com/josephlewis42/sshell/errors"
)

func isBlank(r rune) bool {
	return r == ' ' || r == '\t'
}

// Tokenize splits line on runs of spaces and tabs.
func Tokenize(line string, limits Limits) ([]string, error) {
	if len(line) > limits.MaxLineLength {
		return nil, errors.ErrLineTooLong
	}

	tokens := strings.FieldsFunc(line, isBlank)
	switch {
	case len(tokens) == 0:
		return nil, nil
	case len(tokens) > limits.MaxTokens:
		return nil, errors.ErrTooManyTokens
	}
	for _, tok := range tokens {
		if len(tok) > limits.MaxTokenLength {
			return nil, errors.ErrTokenTooLong.WithDetail(tok)
		}
	}

	return tokens, nil
}
