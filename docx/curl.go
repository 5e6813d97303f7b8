package docx

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Curl renders a runnable example for e. Path parameters use their example
// value or an upper-case placeholder.
func Curl(baseURL, basePath string, e *Endpoint) string {
	path := e.Path
	var query []string
	var headers []string

	for _, p := range e.Params {
		value := p.Example
		if value == "" {
			value = "<" + strings.ToUpper(p.Name) + ">"
		}
		switch p.In {
		case InPath:
			path = strings.ReplaceAll(path, ":"+p.Name, value)
		case InQuery:
			query = append(query, p.Name+"="+value)
		case InHeader:
			headers = append(headers, fmt.Sprintf("%s: %s", p.Name, value))
		}
	}

	url := strings.TrimRight(baseURL, "/") + basePath + path
	if len(query) > 0 {
		url += "?" + strings.Join(query, "&")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "curl -X %s '%s'", e.Method, url)

	switch e.Auth {
	case Bearer:
		b.WriteString(" \\\n  -H 'Authorization: Bearer $TOKEN'")
	case SharedSecret:
		fmt.Fprintf(&b, " \\\n  -H '%s: $WEBHOOK_SECRET'", e.AuthHeader)
	}
	for _, h := range headers {
		fmt.Fprintf(&b, " \\\n  -H '%s'", h)
	}

	if e.RequestExample != nil && e.Method != http.MethodGet {
		body, err := json.Marshal(e.RequestExample)
		if err == nil {
			b.WriteString(" \\\n  -H 'Content-Type: application/json'")
			fmt.Fprintf(&b, " \\\n  -d '%s'", string(body))
		}
	}
	return b.String()
}

// WriteMarkdown prints every endpoint with its curl example
func WriteMarkdown(w io.Writer, baseURL string, routers ...*RouterDoc) error {
	if _, err := fmt.Fprint(w, "# API\n\n"); err != nil {
		return err
	}
	for _, r := range routers {
		title := r.Title
		if title == "" {
			title = r.BasePath
		}
		fmt.Fprintf(w, "## %s\n\n", title)

		for _, e := range r.Endpoints {
			fmt.Fprintf(w, "### %s %s%s\n\n", e.Method, r.BasePath, e.Path)
			if e.Summary != "" {
				fmt.Fprintf(w, "%s\n\n", e.Summary)
			}
			if e.Description != "" {
				fmt.Fprintf(w, "%s\n\n", e.Description)
			}
			fmt.Fprintf(w, "```bash\n%s\n```\n\n", Curl(baseURL, r.BasePath, e))

			if e.ResponseExample != nil {
				resp, err := json.MarshalIndent(e.ResponseExample, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "Response:\n\n```json\n%s\n```\n\n", resp)
			}
		}
	}
	return nil
}
