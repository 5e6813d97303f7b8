package docx

import (
	"github.com/gofiber/fiber/v2"
)

// RouterDoc groups the endpoints mounted under one base path
type RouterDoc struct {
	BasePath  string      `json:"basePath"`
	Title     string      `json:"title,omitempty"`
	Endpoints []*Endpoint `json:"endpoints"`
}

func NewRouterDoc(basePath, title string) *RouterDoc {
	return &RouterDoc{BasePath: basePath, Title: title, Endpoints: []*Endpoint{}}
}

func (r *RouterDoc) AddEndpoint(endpoint *Endpoint) *RouterDoc {
	r.Endpoints = append(r.Endpoints, endpoint)
	return r
}

// Register serves routers as JSON at path
func Register(app fiber.Router, path string, routers ...*RouterDoc) {
	app.Get(path, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"routers": routers})
	})
}
