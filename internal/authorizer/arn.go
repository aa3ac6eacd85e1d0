package authorizer

import (
	"errors"
	"regexp"
	"strings"
)

// methodArnPattern matches a strict execute-api method ARN:
// arn:aws:execute-api:<region>:<account>:<api-id>/<stage>/<METHOD>/<path>
var methodArnPattern = regexp.MustCompile(
	`^arn:aws:execute-api:([a-z]{2}(?:-gov)?-[a-z]+-\d):(\d{12}):([A-Za-z0-9]+)/([^/]+)/([A-Z]+)(/.*)?$`)

// ErrMalformedArn means the method ARN did not match the expected shape.
var ErrMalformedArn = errors.New("authorizer: malformed method arn")

// MethodArn is the parsed target of an authorization request.
type MethodArn struct {
	Raw       string
	Region    string
	AccountID string
	APIID     string
	Stage     string
	Method    string
	Path      string // leading slash, "/" when the ARN names the root
}

// ParseMethodArn validates and decomposes a method ARN.
func ParseMethodArn(raw string) (*MethodArn, error) {
	m := methodArnPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return nil, ErrMalformedArn
	}
	path := m[6]
	if path == "" {
		path = "/"
	}
	return &MethodArn{
		Raw:       raw,
		Region:    m[1],
		AccountID: m[2],
		APIID:     m[3],
		Stage:     m[4],
		Method:    m[5],
		Path:      path,
	}, nil
}

// WildcardResource is the resource group covering every method and path
// under the caller's API and stage. Decisions are scoped to it so a warm
// gateway cache entry stays valid across endpoints.
func (a *MethodArn) WildcardResource() string {
	return "arn:aws:execute-api:" + a.Region + ":" + a.AccountID + ":" +
		a.APIID + "/" + a.Stage + "/*/*"
}
