package docx

import "reflect"

type Authentication string

const (
	None   Authentication = "none"
	Bearer Authentication = "bearer"
	// SharedSecret is a fixed header value agreed with the caller
	SharedSecret Authentication = "sharedSecret"
)

// ParamLocation says where a parameter travels
type ParamLocation string

const (
	InPath   ParamLocation = "path"
	InQuery  ParamLocation = "query"
	InHeader ParamLocation = "header"
)

type Param struct {
	Name        string        `json:"name"`
	In          ParamLocation `json:"in"`
	Description string        `json:"description,omitempty"`
	Required    bool          `json:"required"`
	Example     string        `json:"example,omitempty"`
}

type Endpoint struct {
	Path        string   `json:"path"`
	Method      string   `json:"method"`
	Summary     string   `json:"summary,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`

	Auth       Authentication `json:"auth"`
	AuthHeader string         `json:"authHeader,omitempty"`
	Params     []Param        `json:"params,omitempty"`

	RequestSchema   *Schema `json:"requestSchema,omitempty"`
	RequestExample  any     `json:"requestExample,omitempty"`
	ResponseExample any     `json:"responseExample,omitempty"`
}

func NewEndpoint(method, path string) *Endpoint {
	return &Endpoint{Path: path, Method: method, Auth: None}
}

func (e *Endpoint) WithSummary(summary string) *Endpoint {
	e.Summary = summary
	return e
}

func (e *Endpoint) WithDescription(desc string) *Endpoint {
	e.Description = desc
	return e
}

func (e *Endpoint) WithTags(tags ...string) *Endpoint {
	e.Tags = append(e.Tags, tags...)
	return e
}

// WithBearer marks the endpoint as requiring Authorization: Bearer
func (e *Endpoint) WithBearer() *Endpoint {
	e.Auth = Bearer
	e.AuthHeader = "Authorization"
	return e
}

// WithSharedSecret marks the endpoint as requiring header to carry a secret
func (e *Endpoint) WithSharedSecret(header string) *Endpoint {
	e.Auth = SharedSecret
	e.AuthHeader = header
	return e
}

func (e *Endpoint) WithParam(p Param) *Endpoint {
	e.Params = append(e.Params, p)
	return e
}

func (e *Endpoint) WithPathParam(name, description, example string) *Endpoint {
	return e.WithParam(Param{Name: name, In: InPath, Description: description, Required: true, Example: example})
}

func (e *Endpoint) WithQueryParam(name, description, example string) *Endpoint {
	return e.WithParam(Param{Name: name, In: InQuery, Description: description, Example: example})
}

// WithRequestDTO documents the fields of dto, a struct or pointer to one
func (e *Endpoint) WithRequestDTO(dto any) *Endpoint {
	s := extractSchema(reflect.TypeOf(dto))
	e.RequestSchema = &s
	return e
}

func (e *Endpoint) WithRequestExample(example any) *Endpoint {
	e.RequestExample = example
	return e
}

func (e *Endpoint) WithResponseExample(example any) *Endpoint {
	e.ResponseExample = example
	return e
}
