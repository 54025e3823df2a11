package pagestack

import (
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	wst "github.com/pagestack/pagestack-go/pagestack/common"
	"github.com/pagestack/pagestack-go/pagestack/page"
	"github.com/pagestack/pagestack-go/pagestack/tempdata"
)

// loadPagesFixedRoutes mounts GET and POST for every registered page, with
// the authorization enforcer built first.
func (app *PageStack) loadPagesFixedRoutes() error {
	for _, entry := range *app.pageRegistry {
		loadedPage := entry

		err := app.setupPageAuthorization(loadedPage)
		if err != nil {
			return err
		}

		pageRouter := app.Server.Group(loadedPage.Route, func(ctx *fiber.Ctx) error {
			return ctx.Next()
		})
		loadedPage.Router = &pageRouter
		loadedPage.BaseUrl = loadedPage.Route

		if app.debug {
			log.Println("Mount GET " + loadedPage.BaseUrl)
		}
		pageRouter.Get("/", app.pageHandler(loadedPage, "get"))

		if app.debug {
			log.Println("Mount POST " + loadedPage.BaseUrl)
		}
		pageRouter.Post("/", app.pageHandler(loadedPage, "post"))
	}
	return nil
}

func (app *PageStack) loadNotFoundRoutes() {
	for _, entry := range *app.pageRegistry {
		loadedPage := entry
		(*loadedPage.Router).Use(func(ctx *fiber.Ctx) error {
			log.Println("WARNING: Unresolved method in " + loadedPage.Name + ": " + ctx.Method() + " " + ctx.Path())
			return ctx.Status(404).JSON(fiber.Map{"error": fiber.Map{"status": 404, "message": fmt.Sprintf("Page %#v has no method handling %v %v", loadedPage.Name, ctx.Method(), ctx.Path())}})
		})
	}
}

// pageHandler builds the per-request pipeline: bearer, authorization,
// TempData load, handler dispatch, TempData save, default render.
func (app *PageStack) pageHandler(loadedPage *page.Page, verb string) fiber.Handler {
	return func(c *fiber.Ctx) error {

		event := verb
		if verb == "post" {
			if named := c.Query("handler"); named != "" {
				event = "post." + strings.ToLower(named)
			}
		}

		eventContext := &page.EventContext{
			Ctx:      c,
			Page:     loadedPage,
			Event:    event,
			ViewData: wst.M{},
		}

		_, bearer := eventContext.GetBearer(loadedPage)

		allowed, err := app.authorize(loadedPage, bearer, actionForVerb(verb))
		if err != nil {
			return err
		}
		if !allowed {
			if bearer.User == nil && app.Options.LoginRoute != "" && strings.Contains(string(c.Request().Header.Peek("Accept")), "text/html") {
				return c.Redirect(app.Options.LoginRoute, fiber.StatusFound)
			}
			return wst.CreateError(fiber.ErrUnauthorized, "AUTHORIZATION_FAILED", fiber.Map{"message": fmt.Sprintf("not allowed to %v %v", verb, loadedPage.Name)}, "Error")
		}

		loaded, err := app.tempData.Load(c)
		if err != nil {
			// a tampered or stale bag must not break the page
			log.Println("WARNING: could not load tempdata:", err)
			loaded = nil
		}
		eventContext.TempData = tempdata.NewBag(loaded)
		eventContext.ViewData["TempData"] = eventContext.TempData.Loaded()
		if bearer.User != nil {
			eventContext.ViewData["UserId"] = bearer.User.Id
		}

		return app.handleEvent(eventContext, loadedPage, event)
	}
}

func (app *PageStack) handleEvent(eventContext *page.EventContext, loadedPage *page.Page, event string) error {
	if loadedPage.HasHandler(event) {
		handler, err := loadedPage.GetHandler(event)
		if err != nil {
			return err
		}
		err = handler(eventContext)
		if err != nil {
			return err
		}
	} else if event != "get" {
		return wst.CreateError(fiber.ErrMethodNotAllowed, "HANDLER_NOT_FOUND", fiber.Map{"message": fmt.Sprintf("page %v has no handler for %v", loadedPage.Name, event)}, "Error")
	}

	err := app.tempData.Save(eventContext.Ctx, eventContext.TempData.Pending())
	if err != nil {
		return err
	}

	// a page without a GET handler still renders its view
	if !eventContext.Handled {
		return eventContext.Render()
	}
	return nil
}

func actionForVerb(verb string) string {
	if verb == "get" {
		return "get"
	}
	return "post"
}
