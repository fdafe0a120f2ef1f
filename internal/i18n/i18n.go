// Package i18n picks a display string out of multilingual fields.
package i18n

import (
	"net/http"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// LangParam is the query parameter used to select a language.
const LangParam = "lang"

// DefaultLang is used when the request names no usable language and as the
// fallback key of every multilingual field.
const DefaultLang = "uz"

// ResolveTag determines the language of the request from the lang query
// parameter, then Accept-Language, then DefaultLang.
func ResolveTag(r *http.Request) language.Tag {
	if v := strings.TrimSpace(r.URL.Query().Get(LangParam)); v != "" {
		if tag, err := language.Parse(v); err == nil {
			return tag
		}
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			return tags[0]
		}
	}
	return language.Make(DefaultLang)
}

// Pick returns the value of values best matching tag. Without a match it
// falls back to DefaultLang, then to the lexically first key. An empty map
// yields "".
func Pick(values map[string]string, tag language.Tag) string {
	if len(values) == 0 {
		return ""
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		if k != DefaultLang {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if _, ok := values[DefaultLang]; ok {
		keys = append([]string{DefaultLang}, keys...)
	}

	supported := make([]language.Tag, 0, len(keys))
	index := make([]string, 0, len(keys))
	for _, k := range keys {
		t, err := language.Parse(k)
		if err != nil {
			continue
		}
		supported = append(supported, t)
		index = append(index, k)
	}
	if len(supported) == 0 {
		return values[keys[0]]
	}

	_, i, conf := language.NewMatcher(supported).Match(tag)
	if conf == language.No {
		return values[index[0]]
	}
	return values[index[i]]
}
