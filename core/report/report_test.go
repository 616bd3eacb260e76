package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/josephlewis42/sshell/errors"
)

func TestCompleted(t *testing.T) {
	cases := map[string]struct {
		text     string
		statuses []int
		expected string
	}{
		"single":   {"ls", []int{0}, "+ completed 'ls' [0]\n"},
		"pipeline": {"cat x | grep y | wc", []int{1, 0, 0}, "+ completed 'cat x | grep y | wc' [1] [0] [0]\n"},
		"spaces":   {"sleep 1 &", []int{0}, "+ completed 'sleep 1 &' [0]\n"},
		"exit":     {"exit", []int{127}, "+ completed 'exit' [127]\n"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			buf := &bytes.Buffer{}
			New(buf).Completed(tc.text, tc.statuses)
			assert.Equal(t, tc.expected, buf.String())
		})
	}
}

func TestError(t *testing.T) {
	buf := &bytes.Buffer{}
	r := New(buf)
	r.Error(errors.ErrMissingCommand)
	r.Error(errors.ErrTokenTooLong.WithDetail("abc"))
	r.Println("Bye...")

	assert.Equal(t, "Error: missing command\nError: token too long: abc\nBye...\n", buf.String())
}
