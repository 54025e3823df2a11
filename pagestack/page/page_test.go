package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_RouteFor(t *testing.T) {

	t.Parallel()

	assert.Equal(t, "/", RouteFor("IndexPage"))
	assert.Equal(t, "/", RouteFor("Page"))
	assert.Equal(t, "/login", RouteFor("LoginPage"))
	assert.Equal(t, "/customer-orders", RouteFor("CustomerOrdersPage"))
}

func Test_NewPageDefaults(t *testing.T) {

	t.Parallel()

	registry := make(map[string]*Page)
	loadedPage := New(&Config{Name: "CustomerOrdersPage"}, &registry)
	assert.Equal(t, "/customer-orders", loadedPage.Route)
	assert.Equal(t, "customer-orders", loadedPage.Config.View)
	assert.Equal(t, loadedPage, registry["CustomerOrdersPage"])

	indexPage := New(&Config{Name: "IndexPage"}, &registry)
	assert.Equal(t, "/", indexPage.Route)
	assert.Equal(t, "index", indexPage.Config.View)
}

func Test_NewPageExplicitRoute(t *testing.T) {

	t.Parallel()

	registry := make(map[string]*Page)
	loadedPage := New(&Config{Name: "OrdersPage", Route: "/my-orders"}, &registry)
	assert.Equal(t, "/my-orders", loadedPage.Route)
	assert.Equal(t, "my-orders", loadedPage.Config.View)
}

func Test_PageHandlers(t *testing.T) {

	t.Parallel()

	registry := make(map[string]*Page)
	loadedPage := New(&Config{Name: "CustomerOrdersPage"}, &registry)

	loadedPage.OnGet(func(ctx *EventContext) error { return nil })
	loadedPage.OnPost(func(ctx *EventContext) error { return nil })
	loadedPage.OnPostNamed("Archive", func(ctx *EventContext) error { return nil })

	assert.True(t, loadedPage.HasHandler("get"))
	assert.True(t, loadedPage.HasHandler("post"))
	assert.True(t, loadedPage.HasHandler("post.archive"))
	assert.False(t, loadedPage.HasHandler("post.delete"))

	handler, err := loadedPage.GetHandler("post.archive")
	assert.NoError(t, err)
	assert.NotNil(t, handler)

	_, err = loadedPage.GetHandler("post.delete")
	assert.Error(t, err)
}
