package cliutils

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pagestack/pagestack-go/pagestack/common"
	"github.com/pagestack/pagestack-go/pagestack/page"
)

type StoreConfig struct {
	Name      string `json:"name"`
	Connector string `json:"connector"`
	Host      string `json:"host,omitempty"`
	Port      int    `json:"port,omitempty"`
	Database  string `json:"database,omitempty"`
	User      string `json:"user,omitempty"`
	Password  string `json:"password,omitempty"`
}

var DefaultStores = map[string]StoreConfig{
	"cache": {
		Name:      "cache",
		Connector: "memorykv",
	},
}

type AppViewsConfig struct {
	ContentRoot string `json:"contentRoot"`
	Extension   string `json:"extension"`
	Layout      string `json:"layout"`
}

type AppTempDataConfig struct {
	Store string `json:"store,omitempty"`
}

type AppCasbinConfigPolicies struct {
	OutputDirectory string `json:"outputDirectory"`
}

type AppCasbinConfig struct {
	Policies AppCasbinConfigPolicies `json:"policies"`
}

type AppAuthConfig struct {
	LoginRoute string `json:"loginRoute,omitempty"`
}

type AppConfig struct {
	Name        string                 `json:"name,omitempty"`
	Version     string                 `json:"version,omitempty"`
	Description string                 `json:"description,omitempty"`
	Port        int                    `json:"port"`
	Views       AppViewsConfig         `json:"views"`
	TempData    AppTempDataConfig      `json:"tempdata"`
	Casbin      AppCasbinConfig        `json:"casbin"`
	Auth        AppAuthConfig          `json:"auth"`
	Env         map[string]interface{} `json:"env"`
}

var DefaultConfig = AppConfig{
	Name:        "example-app",
	Version:     "0.0.1",
	Description: "Example pages app",
	Port:        8023,
	Views: AppViewsConfig{
		ContentRoot: "./views",
		Extension:   ".gohtml",
		Layout:      "layouts/main",
	},
	Casbin: AppCasbinConfig{
		Policies: AppCasbinConfigPolicies{
			OutputDirectory: "./data/policies",
		},
	},
	Env: make(map[string]interface{}),
}

const defaultLayout = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>{{.Title}}</title>
</head>
<body>
{{embed}}
</body>
</html>
`

const defaultIndexView = `<h1>{{.Title}}</h1>
{{with .TempData}}{{with .flash}}<p class="flash">{{.}}</p>{{end}}{{end}}
<p>Edit views/index.gohtml to change this page.</p>
`

// InitProject scaffolds a pages project: server config, store declarations
// and a views content root with a default layout and index page.
func InitProject(cwd string) error {
	err := os.Chdir(cwd)
	if err != nil {
		return err
	}

	fqnCwd, err := os.Getwd()
	if err != nil {
		return err
	}

	cwdName := regexp.MustCompile("([^\\\\/]+)$").FindString(fqnCwd)
	projectName := regexp.MustCompile("[^a-zA-Z0-9]+").ReplaceAllString(cwdName, "-")
	log.Println("Initializing project", projectName)

	if _, err := os.Stat("server"); os.IsNotExist(err) {
		err = os.Mkdir("server", 0755)
		if err != nil {
			return err
		}
	}

	if _, err := os.Stat("server/config.json"); os.IsNotExist(err) {
		config := DefaultConfig
		config.Name = projectName
		bytes, err := json.MarshalIndent(config, "", "  ")
		if err != nil {
			return err
		}
		err = os.WriteFile("server/config.json", bytes, 0644)
		if err != nil {
			return err
		}
	}

	if _, err := os.Stat("server/stores.json"); os.IsNotExist(err) {
		bytes, err := json.MarshalIndent(DefaultStores, "", "  ")
		if err != nil {
			return err
		}
		err = os.WriteFile("server/stores.json", bytes, 0644)
		if err != nil {
			return err
		}
	}

	if _, err := os.Stat("views/layouts"); os.IsNotExist(err) {
		err = os.MkdirAll("views/layouts", 0755)
		if err != nil {
			return err
		}
	}

	if _, err := os.Stat("views/layouts/main.gohtml"); os.IsNotExist(err) {
		err = os.WriteFile("views/layouts/main.gohtml", []byte(defaultLayout), 0644)
		if err != nil {
			return err
		}
	}

	if _, err := os.Stat("views/index.gohtml"); os.IsNotExist(err) {
		err = os.WriteFile("views/index.gohtml", []byte(defaultIndexView), 0644)
		if err != nil {
			return err
		}
	}

	return nil
}

// AddPage scaffolds the view file for a new page name, e.g. CustomerOrdersPage.
// Content root and extension come from server/config.json when present.
func AddPage(pageName string) error {

	config := DefaultConfig
	if _, err := os.Stat("server/config.json"); err == nil {
		err = common.LoadFile("server/config.json", &config)
		if err != nil {
			return err
		}
	}
	if config.Views.ContentRoot == "" {
		config.Views.ContentRoot = DefaultConfig.Views.ContentRoot
	}
	if config.Views.Extension == "" {
		config.Views.Extension = DefaultConfig.Views.Extension
	}

	route := page.RouteFor(pageName)
	viewName := route[1:]
	if viewName == "" {
		viewName = "index"
	}

	path := fmt.Sprintf("%v/%v%v", strings.TrimSuffix(config.Views.ContentRoot, "/"), viewName, config.Views.Extension)

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return fmt.Errorf("view for page %v already exists", pageName)
	}

	log.Printf("Adding page %v with view %v\n", pageName, path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	view := fmt.Sprintf("<h1>%v</h1>\n{{with .TempData}}{{with .flash}}<p class=\"flash\">{{.}}</p>{{end}}{{end}}\n", pageName)
	return os.WriteFile(path, []byte(view), 0644)
}
