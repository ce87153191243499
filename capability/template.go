package capability

import (
	"context"
	"regexp"
	"strings"
)

var templateParam = regexp.MustCompile(`\{([^}]+)\}`)

// IsTemplate reports whether uri contains {param} placeholders.
func IsTemplate(uri string) bool {
	return templateParam.MatchString(uri)
}

// Template is a compiled URI template such as "file://{name}".
// Each placeholder matches one path segment.
type Template struct {
	raw        string
	re         *regexp.Regexp
	paramNames []string
}

// CompileTemplate converts a URI template to a matcher.
func CompileTemplate(raw string) (*Template, error) {
	matches := templateParam.FindAllStringSubmatch(raw, -1)

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}

	pattern := regexp.QuoteMeta(raw)
	pattern = strings.ReplaceAll(pattern, `\{`, "{")
	pattern = strings.ReplaceAll(pattern, `\}`, "}")
	pattern = templateParam.ReplaceAllString(pattern, `([^/]+)`)

	re, err := regexp.Compile("^" + pattern + "$")
	if err != nil {
		return nil, err
	}
	return &Template{raw: raw, re: re, paramNames: names}, nil
}

// String returns the template source.
func (t *Template) String() string { return t.raw }

// Match matches uri against the template and extracts parameters.
func (t *Template) Match(uri string) (map[string]string, bool) {
	m := t.re.FindStringSubmatch(uri)
	if m == nil {
		return nil, false
	}

	params := make(map[string]string, len(t.paramNames))
	for i, name := range t.paramNames {
		params[name] = m[i+1]
	}
	return params, true
}

type paramsKey struct{}

// ContextWithParams attaches template parameters to ctx.
func ContextWithParams(ctx context.Context, params map[string]string) context.Context {
	return context.WithValue(ctx, paramsKey{}, params)
}

// ParamsFromContext returns the template parameters of the resource being
// read, or nil for exact-URI resources.
func ParamsFromContext(ctx context.Context) map[string]string {
	params, _ := ctx.Value(paramsKey{}).(map[string]string)
	return params
}
