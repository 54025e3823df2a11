package page

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	"github.com/gofiber/fiber/v2"

	wst "github.com/pagestack/pagestack-go/pagestack/common"
)

// Config describes a page the way a model config describes a model: one named
// unit carrying its view, layout and access policies.
type Config struct {
	Name     string   `json:"name"`
	Route    string   `json:"route,omitempty"`
	View     string   `json:"view,omitempty"`
	Layout   string   `json:"layout,omitempty"`
	Public   bool     `json:"public"`
	Policies []string `json:"policies,omitempty"`
}

type Handler func(ctx *EventContext) error

// Page is a registered page: route, compiled view names, handlers keyed by
// event ("get", "post", "post.<name>").
type Page struct {
	Name    string
	Config  *Config
	App     *wst.IApp
	Route   string
	BaseUrl string
	Router  *fiber.Router

	CasbinModel   *casbinmodel.Model
	CasbinAdapter **fileadapter.Adapter
	Enforcer      *casbin.Enforcer

	handlers map[string]Handler
	registry *map[string]*Page
}

var pageSuffix = regexp.MustCompile("Page$")

// RouteFor derives the route from a page name: CustomerOrdersPage --> /customer-orders,
// IndexPage --> /.
func RouteFor(name string) string {
	base := pageSuffix.ReplaceAllString(name, "")
	if base == "" || base == "Index" {
		return "/"
	}
	return "/" + wst.DashedCase(base)
}

func New(config *Config, registry *map[string]*Page) *Page {
	name := config.Name
	if config.Route == "" {
		config.Route = RouteFor(name)
	}
	if config.View == "" {
		config.View = strings.TrimPrefix(config.Route, "/")
		if config.View == "" {
			config.View = "index"
		}
	}
	loadedPage := &Page{
		Name:     name,
		Config:   config,
		Route:    config.Route,
		handlers: make(map[string]Handler),
		registry: registry,
	}
	(*registry)[name] = loadedPage
	return loadedPage
}

func (loadedPage *Page) GetRegistry() *map[string]*Page {
	return loadedPage.registry
}

// On registers a handler for an event. Events are "get", "post" and
// "post.<handler>" for named POST handlers.
func (loadedPage *Page) On(event string, handler Handler) {
	loadedPage.handlers[event] = handler
}

func (loadedPage *Page) OnGet(handler Handler) {
	loadedPage.On("get", handler)
}

func (loadedPage *Page) OnPost(handler Handler) {
	loadedPage.On("post", handler)
}

// OnPostNamed handles POST requests carrying ?handler=<name>, the single-file
// page idiom for multiple form actions on one page.
func (loadedPage *Page) OnPostNamed(name string, handler Handler) {
	loadedPage.On("post."+strings.ToLower(name), handler)
}

func (loadedPage *Page) GetHandler(event string) (Handler, error) {
	handler, ok := loadedPage.handlers[event]
	if !ok {
		return nil, fmt.Errorf("page %v has no handler for %v", loadedPage.Name, event)
	}
	return handler, nil
}

func (loadedPage *Page) HasHandler(event string) bool {
	_, ok := loadedPage.handlers[event]
	return ok
}
