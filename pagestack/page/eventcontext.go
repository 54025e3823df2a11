package page

import (
	"fmt"
	"log"
	"strings"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt"

	wst "github.com/pagestack/pagestack-go/pagestack/common"
	"github.com/pagestack/pagestack-go/pagestack/tempdata"
)

// AuthCookieName carries the signed bearer between page requests.
const AuthCookieName = "pagestack_auth"

type BearerUser struct {
	Id     interface{}
	Data   jwt.MapClaims
	System bool
}

type BearerRole struct {
	Name string
}

type BearerToken struct {
	User   *BearerUser
	Roles  []BearerRole
	Claims jwt.MapClaims
	Raw    string
}

type EventContext struct {
	Bearer     *BearerToken
	Ctx        *fiber.Ctx
	ViewData   wst.M
	TempData   *tempdata.Bag
	Page       *Page
	Event      string
	StatusCode int
	Handled    bool
}

// Set adds a value to the view data handed to the template.
func (eventContext *EventContext) Set(key string, value interface{}) {
	if eventContext.ViewData == nil {
		eventContext.ViewData = wst.M{}
	}
	eventContext.ViewData[key] = value
}

// BindForm parses the request form body into dst.
func (eventContext *EventContext) BindForm(dst interface{}) error {
	return eventContext.Ctx.BodyParser(dst)
}

// Render renders the page view inside its layout. An explicit view name
// overrides the page's configured one.
func (eventContext *EventContext) Render(viewOverride ...string) error {
	viewName := eventContext.Page.Config.View
	if len(viewOverride) > 0 {
		viewName = viewOverride[0]
	}
	if eventContext.StatusCode == 0 {
		eventContext.StatusCode = fiber.StatusOK
	}
	eventContext.Handled = true
	layout := eventContext.Page.Config.Layout
	if layout != "" {
		return eventContext.Ctx.Status(eventContext.StatusCode).Render(viewName, eventContext.ViewData, layout)
	}
	return eventContext.Ctx.Status(eventContext.StatusCode).Render(viewName, eventContext.ViewData)
}

// RedirectToPage issues the Post-Redirect-Get hop: 303 See Other to the named
// page, with whatever was written to TempData riding along.
func (eventContext *EventContext) RedirectToPage(pageName string) error {
	found, err := eventContext.Page.App.FindPage(pageName)
	if err != nil {
		return err
	}
	target := found.(*Page)
	eventContext.Handled = true
	return eventContext.Ctx.Redirect(target.Route, fiber.StatusSeeOther)
}

// Redirect is the raw variant of RedirectToPage for routes outside the page
// registry.
func (eventContext *EventContext) Redirect(location string) error {
	eventContext.Handled = true
	return eventContext.Ctx.Redirect(location, fiber.StatusSeeOther)
}

// GetBearer extracts and verifies the bearer from the auth cookie or the
// Authorization header. A request without credentials yields a token with a
// nil user, never an error.
func (eventContext *EventContext) GetBearer(loadedPage *Page) (error, *BearerToken) {

	if eventContext.Bearer != nil {
		return nil, eventContext.Bearer
	}
	c := eventContext.Ctx

	rawToken := c.Cookies(AuthCookieName)
	if rawToken == "" {
		authSt := string(c.Request().Header.Peek("Authorization"))
		authBearerPair := strings.Split(strings.TrimSpace(authSt), "Bearer ")
		if len(authBearerPair) == 2 {
			rawToken = authBearerPair[1]
		}
	}

	var user *BearerUser
	roles := make([]BearerRole, 0)
	bearerClaims := jwt.MapClaims{}
	if rawToken != "" {

		token, err := jwt.Parse(rawToken, func(token *jwt.Token) (interface{}, error) {

			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}

			return loadedPage.App.JwtSecretKey, nil
		})

		if token != nil {
			if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
				bearerClaims = claims
				claimRoles := claims["roles"]
				userId := claims["userId"]
				user = &BearerUser{
					Id:   userId,
					Data: claims,
				}
				if claimRoles != nil {
					for _, role := range claimRoles.([]interface{}) {
						roles = append(roles, BearerRole{
							Name: role.(string),
						})
					}
				}
			} else {
				log.Println(err)
			}
		}

	}
	eventContext.Bearer = &BearerToken{
		User:   user,
		Roles:  roles,
		Claims: bearerClaims,
		Raw:    rawToken,
	}
	return nil, eventContext.Bearer
}
