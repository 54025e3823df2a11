package tests

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"

	"github.com/pagestack/pagestack-go/pagestack"
	wst "github.com/pagestack/pagestack-go/pagestack/common"
	"github.com/pagestack/pagestack-go/pagestack/page"
	"github.com/pagestack/pagestack-go/pagestack/tempdata"
)

var app *pagestack.PageStack

const testJwtSecret = "test_secret_key"

func init() {
	app = pagestack.New(pagestack.Options{
		JwtSecretKey: testJwtSecret,
	})

	indexPage := app.RegisterPage(&page.Config{
		Name:   "IndexPage",
		Public: true,
	})
	indexPage.OnGet(func(ctx *page.EventContext) error {
		ctx.Set("Title", "Home")
		return ctx.Render()
	})

	guestbookPage := app.RegisterPage(&page.Config{
		Name:     "GuestbookPage",
		Policies: []string{"$everyone,*,*,allow"},
	})
	guestbookPage.OnPost(func(ctx *page.EventContext) error {
		ctx.TempData.Set("flash", "Thanks for signing")
		return ctx.RedirectToPage("GuestbookPage")
	})

	ordersPage := app.RegisterPage(&page.Config{
		Name:     "CustomerOrdersPage",
		Policies: []string{"$everyone,*,*,allow"},
	})
	ordersPage.OnPostNamed("Archive", func(ctx *page.EventContext) error {
		ctx.Handled = true
		return ctx.Ctx.JSON(fiber.Map{"archived": true})
	})

	app.RegisterPage(&page.Config{
		Name: "AdminPage",
	})

	// no listener: every test drives the app in-process through app.Server.Test
	app.Boot(func(app *pagestack.PageStack) {

	})
}

func readBody(t *testing.T, resp *http.Response) string {
	body, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	return string(body)
}

func cookieFromResponse(resp *http.Response, name string) *http.Cookie {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func signTestToken(t *testing.T, claims jwt.MapClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJwtSecret))
	assert.NoError(t, err)
	return signed
}

func Test_GetIndex(t *testing.T) {

	resp, err := app.Server.Test(httptest.NewRequest("GET", "/", nil))
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body := readBody(t, resp)
	assert.Contains(t, body, "<h1>Home</h1>")
	assert.Contains(t, body, "<title>Home</title>")
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func Test_PostIndexAnonymousDenied(t *testing.T) {

	// public pages accept reads from everyone, writes need authentication
	resp, err := app.Server.Test(httptest.NewRequest("POST", "/", nil))
	assert.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	var parsed wst.M
	err = json.Unmarshal([]byte(readBody(t, resp)), &parsed)
	assert.NoError(t, err)
	assert.Equal(t, "AUTHORIZATION_FAILED", parsed["error"].(map[string]interface{})["code"])
}

func Test_PostRedirectGetFlash(t *testing.T) {

	resp, err := app.Server.Test(httptest.NewRequest("POST", "/guestbook", nil))
	assert.NoError(t, err)
	assert.Equal(t, 303, resp.StatusCode)
	assert.Equal(t, "/guestbook", resp.Header.Get("Location"))

	tempDataCookie := cookieFromResponse(resp, tempdata.CookieName)
	if !assert.NotNil(t, tempDataCookie) {
		return
	}
	assert.NotEmpty(t, tempDataCookie.Value)

	req := httptest.NewRequest("GET", "/guestbook", nil)
	req.AddCookie(&http.Cookie{Name: tempdata.CookieName, Value: tempDataCookie.Value})
	resp, err = app.Server.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Thanks for signing")

	// the flash survives exactly one request
	resp, err = app.Server.Test(httptest.NewRequest("GET", "/guestbook", nil))
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.NotContains(t, readBody(t, resp), "Thanks for signing")
}

func Test_GuestbookDefaultRender(t *testing.T) {

	// no GET handler registered, the view still renders
	resp, err := app.Server.Test(httptest.NewRequest("GET", "/guestbook", nil))
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "<h1>Guestbook</h1>")
}

func Test_NamedPostHandler(t *testing.T) {

	resp, err := app.Server.Test(httptest.NewRequest("POST", "/customer-orders?handler=Archive", nil))
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var parsed wst.M
	err = json.Unmarshal([]byte(readBody(t, resp)), &parsed)
	assert.NoError(t, err)
	assert.Equal(t, true, parsed["archived"])
}

func Test_PostWithoutHandler(t *testing.T) {

	resp, err := app.Server.Test(httptest.NewRequest("POST", "/customer-orders", nil))
	assert.NoError(t, err)
	assert.Equal(t, 405, resp.StatusCode)

	var parsed wst.M
	err = json.Unmarshal([]byte(readBody(t, resp)), &parsed)
	assert.NoError(t, err)
	assert.Equal(t, "HANDLER_NOT_FOUND", parsed["error"].(map[string]interface{})["code"])
}

func Test_AdminAnonymousDenied(t *testing.T) {

	resp, err := app.Server.Test(httptest.NewRequest("GET", "/admin", nil))
	assert.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func Test_AdminAnonymousBrowserRedirectsToLogin(t *testing.T) {

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	resp, err := app.Server.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, 302, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func Test_AdminWithBearer(t *testing.T) {

	signed := signTestToken(t, jwt.MapClaims{
		"userId": "user1",
		"roles":  []interface{}{"admin"},
	})

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, err := app.Server.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body := readBody(t, resp)
	assert.Contains(t, body, "<h1>Admin</h1>")
	assert.Contains(t, body, "user1")
}

func Test_AdminWithAuthCookie(t *testing.T) {

	signed := signTestToken(t, jwt.MapClaims{
		"userId": "user2",
	})

	req := httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(&http.Cookie{Name: page.AuthCookieName, Value: signed})
	resp, err := app.Server.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "user2")
}

func Test_UnresolvedPageMethod(t *testing.T) {

	resp, err := app.Server.Test(httptest.NewRequest("PUT", "/guestbook", nil))
	assert.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "GuestbookPage")
}

func Test_UnknownRoute(t *testing.T) {

	resp, err := app.Server.Test(httptest.NewRequest("GET", "/definitely-not-a-page", nil))
	assert.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func Test_StoresStats(t *testing.T) {

	resp, err := app.Server.Test(httptest.NewRequest("GET", "/system/stores/stats", nil))
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var parsed wst.M
	err = json.Unmarshal([]byte(readBody(t, resp)), &parsed)
	assert.NoError(t, err)
	stats, ok := parsed["stats"].(map[string]interface{})
	if !assert.True(t, ok) {
		return
	}
	assert.Contains(t, stats, "stores")
	assert.Contains(t, stats["stores"].(map[string]interface{}), "cache")
}

func Test_Metrics(t *testing.T) {

	// at least one counted request first
	_, err := app.Server.Test(httptest.NewRequest("GET", "/", nil))
	assert.NoError(t, err)

	resp, err := app.Server.Test(httptest.NewRequest("GET", "/metrics", nil))
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.True(t, strings.Contains(readBody(t, resp), "pagestack_requests_total"))
}
