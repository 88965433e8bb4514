// Page template data derived from the OpenAPI document.
//
// NewPageData gathers what a Datastar page template needs:
//   - Signals JSON for data-signals initialization
//   - SSE endpoint URLs for data-init, discovered from OpenAPI operation ids
//
// The HTML never hardcodes URLs: routes are looked up in the OpenAPI document and their
// path parameters filled from the page.

package humastar

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// PageData holds the Datastar wiring of a page.
type PageData struct {
	// Signals is the JSON string for data-signals initialization.
	Signals string

	// SSEInits holds the SSE endpoints posted to when the page loads.
	SSEInits []string
}

// NewPageData encodes the initial signals of a page.
func NewPageData(signals map[string]any, inits ...string) (PageData, error) {
	b, err := json.Marshal(signals)
	if err != nil {
		return PageData{}, fmt.Errorf("encoding signals: %w", err)
	}
	return PageData{Signals: string(b), SSEInits: inits}, nil
}

// DataInit returns a Datastar data-init attribute value posting to every SSE
// init URL, e.g. "@post('/api/v1/ui/maps/qpv/toggle')". It is typed as JS
// so html/template keeps it verbatim in data-on:* attributes.
func (pd PageData) DataInit() template.JS {
	parts := make([]string, 0, len(pd.SSEInits))
	for _, url := range pd.SSEInits {
		parts = append(parts, fmt.Sprintf("@post('%s')", url))
	}
	return template.JS(strings.Join(parts, "; "))
}

// OperationPath finds the path of a registered operation and fills its path
// parameters. It returns "" when no operation has that id.
func OperationPath(api huma.API, operationID string, params map[string]string) string {
	for path, item := range api.OpenAPI().Paths {
		for _, op := range []*huma.Operation{item.Get, item.Post, item.Put, item.Patch, item.Delete} {
			if op == nil || op.OperationID != operationID {
				continue
			}
			for k, v := range params {
				path = strings.ReplaceAll(path, "{"+k+"}", v)
			}
			return path
		}
	}
	return ""
}
