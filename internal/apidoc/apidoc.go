// Package apidoc embeds the OpenAPI description of the HTTP API and checks
// a router's routes against it.
package apidoc

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var document []byte

// Bytes returns the raw YAML document.
func Bytes() []byte {
	return document
}

// Load parses and validates the embedded document.
func Load(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(document)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}
	return doc, nil
}

// Route is one method and path served by a router.
type Route struct {
	Method string
	Path   string
}

func (r Route) String() string {
	return r.Method + " " + r.Path
}

// Finding is a disagreement between a router and the document.
type Finding struct {
	Code    string
	Route   Route
	Message string
}

var pathParam = regexp.MustCompile(`\{[^}]+\}`)

// normalizePath drops trailing slashes and names every path parameter the
// same, so "/runbooks/{incidentID}/" matches "/runbooks/{incident_id}".
func normalizePath(p string) string {
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return pathParam.ReplaceAllString(p, "{}")
}

// Drift compares served routes with the document's operations. Routes
// missing from the document are MISSING_API_PATH or MISSING_API_METHOD;
// documented operations nobody serves are UNSERVED_OPERATION.
func Drift(doc *openapi3.T, routes []Route) []Finding {
	documented := map[string]map[string]bool{}
	for path, item := range doc.Paths.Map() {
		methods := map[string]bool{}
		for method := range item.Operations() {
			methods[strings.ToUpper(method)] = true
		}
		documented[normalizePath(path)] = methods
	}

	served := map[string]bool{}
	var findings []Finding
	for _, r := range routes {
		method := strings.ToUpper(r.Method)
		if method == http.MethodHead || method == http.MethodOptions {
			continue
		}
		key := normalizePath(r.Path)
		served[method+" "+key] = true

		methods, ok := documented[key]
		switch {
		case !ok:
			findings = append(findings, Finding{Code: "MISSING_API_PATH", Route: r,
				Message: fmt.Sprintf("path not documented: %s", r)})
		case !methods[method]:
			findings = append(findings, Finding{Code: "MISSING_API_METHOD", Route: r,
				Message: fmt.Sprintf("method not documented: %s", r)})
		}
	}

	for path, item := range doc.Paths.Map() {
		for method := range item.Operations() {
			method = strings.ToUpper(method)
			if !served[method+" "+normalizePath(path)] {
				r := Route{Method: method, Path: path}
				findings = append(findings, Finding{Code: "UNSERVED_OPERATION", Route: r,
					Message: fmt.Sprintf("documented but not served: %s", r)})
			}
		}
	}

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Code != findings[j].Code {
			return findings[i].Code < findings[j].Code
		}
		return findings[i].Route.String() < findings[j].Route.String()
	})
	return findings
}
