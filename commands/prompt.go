package commands

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

const (
	EnvHome = "HOME"
	EnvUser = "USER"

	DefaultPrompt = "sshell@ucd$ "
)

var (
	// promptEscape matches one backslash escape: octal, hex or a single
	// control character.
	promptEscape = regexp.MustCompile(`\\(0[0-7]{1,3}|x[0-9a-fA-F]{1,2}|[nrt\\abfv])`)

	controlEscapes = map[byte]string{
		'n':  "\n",
		'r':  "\r",
		't':  "\t",
		'\\': `\`,
		'a':  "\a",
		'b':  "\b",
		'f':  "\f",
		'v':  "\v",
	}

	ColorBoldGreen = color.New(color.FgGreen, color.Bold)
)

// unescape expands echo -e style escapes in a single pass, so an escaped
// backslash never starts another escape.
func unescape(s string) string {
	return promptEscape.ReplaceAllStringFunc(s, func(esc string) string {
		base := 0
		switch esc[1] {
		case '0':
			base = 8
		case 'x':
			base = 16
		default:
			return controlEscapes[esc[1]]
		}

		// Octal digits follow the leading 0, hex digits follow the x.
		out, err := strconv.ParseUint(esc[2:], base, 8)
		if err != nil {
			return esc
		}
		return string(rune(out))
	})
}

// expandPrompt replaces the bash style escapes \u, \h, \w and \$ in the
// prompt template.
func expandPrompt(template string) string {
	if template == "" {
		template = DefaultPrompt
	}

	prompt := strings.ReplaceAll(template, `\u`, os.Getenv(EnvUser))

	if strings.Contains(prompt, `\h`) {
		host, _ := os.Hostname()
		prompt = strings.ReplaceAll(prompt, `\h`, host)
	}

	if strings.Contains(prompt, `\w`) {
		pwd, _ := os.Getwd()
		home := os.Getenv(EnvHome)
		if home != "" && strings.HasPrefix(pwd, home) {
			pwd = "~" + strings.TrimPrefix(pwd, home)
		}
		prompt = strings.ReplaceAll(prompt, `\w`, pwd)
	}

	if os.Getuid() == 0 {
		prompt = strings.ReplaceAll(prompt, `\$`, "#")
	} else {
		prompt = strings.ReplaceAll(prompt, `\$`, "$")
	}

	return unescape(prompt)
}

// colorPrompt wraps prompt in color escapes. It forces color on because the
// caller already decided the output should be colorized.
func colorPrompt(prompt string) string {
	c := *ColorBoldGreen
	c.EnableColor()
	return c.Sprint(prompt)
}
