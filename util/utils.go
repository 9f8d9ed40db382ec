package util

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	RgxEmail   = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")
	rgxDataURI = regexp.MustCompile(`^data:([a-zA-Z0-9.+/-]+)?(;[a-zA-Z0-9=.+-]+)*;base64,`)
)

func NotBlank(value string) bool {
	return strings.TrimSpace(value) != ""
}

func IsEmail(value string) bool {
	if len(value) > 254 {
		return false
	}

	return RgxEmail.MatchString(value)
}

func IsURL(value string) bool {
	u, err := url.ParseRequestURI(value)
	if err != nil {
		return false
	}

	return u.Scheme != "" && u.Host != ""
}

// Truncate shortens s to at most n runes, appending an ellipsis when cut.
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n])) + "..."
}

// DecodeDataURI returns the declared media type and payload of a base64
// data URI.
func DecodeDataURI(s string) (string, []byte, error) {
	loc := rgxDataURI.FindStringSubmatchIndex(s)
	if loc == nil {
		return "", nil, fmt.Errorf("not a base64 data uri")
	}
	mediaType := ""
	if loc[2] >= 0 {
		mediaType = s[loc[2]:loc[3]]
	}
	data, err := base64.StdEncoding.DecodeString(s[loc[1]:])
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 payload: %w", err)
	}
	return mediaType, data, nil
}

// TemplateFuncs are shared by the text and HTML email templates.
var TemplateFuncs = template.FuncMap{
	"truncate": Truncate,
}
