package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/pagestack/pagestack-go/pagestack"
	"github.com/pagestack/pagestack-go/pagestack/page"
)

func main() {
	debug := false
	if envDebug, _ := os.LookupEnv("DEBUG"); envDebug == "true" {
		debug = true
	}
	jwtSecretKey := ""
	if s, present := os.LookupEnv("JWT_SECRET"); present {
		jwtSecretKey = s
		if debug {
			log.Printf("<JWT_SECRET size=%v> found\n", len(jwtSecretKey))
		}
	}
	app := pagestack.New(pagestack.Options{
		Port:         8023,
		JwtSecretKey: jwtSecretKey,
	})

	indexPage := app.RegisterPage(&page.Config{
		Name:   "IndexPage",
		Public: true,
	})
	indexPage.OnGet(func(ctx *page.EventContext) error {
		ctx.Set("Title", "Home")
		return ctx.Render()
	})
	indexPage.OnPost(func(ctx *page.EventContext) error {
		ctx.TempData.Set("flash", "Saved")
		return ctx.RedirectToPage("IndexPage")
	})

	app.Boot(func(app *pagestack.PageStack) {

	})

	app.Server.Get("/*", func(c *fiber.Ctx) error {
		log.Println("GET: " + c.Path())
		return c.Status(404).JSON(fiber.Map{"error": fiber.Map{"status": 404, "message": fmt.Sprintf("Unknown method %v %v", c.Method(), c.Path())}})
	})
	app.Server.Post("/*", func(c *fiber.Ctx) error {
		log.Println("POST: " + c.Path())
		return c.Status(404).JSON(fiber.Map{"error": fiber.Map{"status": 404, "message": fmt.Sprintf("Unknown method %v %v", c.Method(), c.Path())}})
	})

	log.Fatal(app.Start())

}
