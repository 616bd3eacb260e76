package commands

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnescape(t *testing.T) {
	cases := []struct {
		escaped  string
		expected string
	}{
		{"not escaped", "not escaped"},
		{`newline\n`, "newline\n"},
		{`double-escape\\n`, `double-escape\n`},
		// Octal
		{`\07`, string(rune(7))},
		{`\011`, "\t"},
		{`\0101`, "A"},
		{`\0108`, "\b8"},
		{`\08`, `\08`},
		{`\0777`, `\0777`},
		// Hex
		{`\x7`, string(rune(07))},
		{`\x9`, "\t"},
		{`\x4A`, "J"},
	}

	for _, tc := range cases {
		t.Run(tc.escaped, func(t *testing.T) {
			actual := unescape(tc.escaped)

			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestExpandPrompt(t *testing.T) {
	t.Setenv(EnvUser, "alice")

	dir := t.TempDir()
	t.Setenv(EnvHome, dir)
	wd, err := os.Getwd()
	assert.NoError(t, err)
	assert.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	sign := "$"
	if os.Getuid() == 0 {
		sign = "#"
	}

	assert.Equal(t, DefaultPrompt, expandPrompt(""))
	assert.Equal(t, "sshell@ucd$ ", expandPrompt("sshell@ucd$ "))
	assert.Equal(t, "alice:~"+sign+" ", expandPrompt(`\u:\w\$ `))
	assert.Equal(t, "\t> ", expandPrompt(`\t> `))
}

func TestColorPrompt(t *testing.T) {
	colored := colorPrompt("> ")
	assert.Contains(t, colored, "\x1b[")
	assert.Contains(t, colored, "> ")
}
