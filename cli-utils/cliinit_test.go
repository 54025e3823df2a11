package cliutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func chdirTemp(t *testing.T) {
	prev, err := os.Getwd()
	assert.NoError(t, err)
	assert.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func Test_InitProjectAndAddPage(t *testing.T) {

	chdirTemp(t)

	err := InitProject(".")
	assert.NoError(t, err)
	for _, path := range []string{"server/config.json", "server/stores.json", "views/layouts/main.gohtml", "views/index.gohtml"} {
		_, err := os.Stat(path)
		assert.NoError(t, err)
	}

	err = AddPage("CustomerOrdersPage")
	assert.NoError(t, err)
	_, err = os.Stat("views/customer-orders.gohtml")
	assert.NoError(t, err)

	// already scaffolded
	err = AddPage("CustomerOrdersPage")
	assert.Error(t, err)

	// the index view ships with InitProject
	err = AddPage("IndexPage")
	assert.Error(t, err)
}

func Test_AddPageHonorsConfig(t *testing.T) {

	chdirTemp(t)

	assert.NoError(t, os.MkdirAll("server", 0755))
	configJson := `{"port":8023,"views":{"contentRoot":"./pages","extension":".tmpl","layout":"layouts/main"}}`
	assert.NoError(t, os.WriteFile("server/config.json", []byte(configJson), 0644))

	err := AddPage("CustomerOrdersPage")
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join("pages", "customer-orders.tmpl"))
	assert.NoError(t, err)
}
