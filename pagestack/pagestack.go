package pagestack

import (
	"errors"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"

	"github.com/goccy/go-json"

	wst "github.com/pagestack/pagestack-go/pagestack/common"
	"github.com/pagestack/pagestack-go/pagestack/memorykv"
	"github.com/pagestack/pagestack-go/pagestack/middleware"
	"github.com/pagestack/pagestack-go/pagestack/page"
	"github.com/pagestack/pagestack-go/pagestack/statestore"
	"github.com/pagestack/pagestack-go/pagestack/tempdata"
)

// PageStack is the application: a fiber server plus the page services
// registered on top of it (view engine, TempData provider, state stores,
// page registry).
type PageStack struct {
	Server  *fiber.App
	Viper   *viper.Viper
	StViper *viper.Viper
	Options Options

	port         int
	stores       *map[string]*statestore.Store
	pageRegistry *map[string]*page.Page
	debug        bool
	viewEngine   *ViewEngine
	tempData     tempdata.Provider
	jwtSecretKey []byte
	storeOptions *map[string]*statestore.Options
	metrics      *prometheus.Registry
	init         time.Time
}

type Options struct {
	ContentRoot       string
	ViewExtension     string
	Layout            string
	Port              int
	JwtSecretKey      string
	LoginRoute        string
	StoreOptions      *map[string]*statestore.Options
	EnableCompression bool
	CompressionConfig compress.Config
}

func (app *PageStack) FindPage(pageName string) (*page.Page, error) {
	result := (*app.pageRegistry)[pageName]
	if result == nil {
		return nil, errors.New(fmt.Sprintf("Page %v not found", pageName))
	}
	return result, nil
}

func (app *PageStack) FindStore(storeName string) (*statestore.Store, error) {
	result := (*app.stores)[storeName]
	if result == nil {
		return nil, errors.New(fmt.Sprintf("Store %v not found", storeName))
	}
	return result, nil
}

// RegisterPage declares a page; routes are mounted during Boot.
func (app *PageStack) RegisterPage(config *page.Config) *page.Page {
	loadedPage := page.New(config, app.pageRegistry)
	loadedPage.App = app.asInterface()
	if loadedPage.Config.Layout == "" {
		loadedPage.Config.Layout = app.Options.Layout
	}
	return loadedPage
}

// ViewEngine exposes the warmed engine, mostly for AddFunc before Boot.
func (app *PageStack) ViewEngine() *ViewEngine {
	return app.viewEngine
}

func (app *PageStack) TempDataProvider() tempdata.Provider {
	return app.tempData
}

// Boot wires the pipeline: stores, middleware, view warming, page routes.
// Boot is the pipeline-setup half of the framework; New is the service
// registration half.
func (app *PageStack) Boot(customRoutesCallbacks ...func(app *PageStack)) {

	err := app.loadStores()
	if err != nil {
		log.Fatalf("Error while loading stores: %v", err)
	}

	app.selectTempDataProvider()

	app.Middleware(middleware.RequestID())
	app.Middleware(middleware.Logger())

	metricsMiddleware, err := middleware.NewMetrics(app.metrics)
	if err != nil {
		log.Fatalf("Error while registering metrics: %v", err)
	}
	app.Middleware(metricsMiddleware.Handler())

	app.Middleware(func(c *fiber.Ctx) error {
		method := c.Method()
		err := c.Next()
		if err != nil {
			log.Println("Error:", err)
			log.Printf("%v: %v\n", method, c.OriginalURL())
			switch err.(type) {
			case *wst.PageError:
				pageErr := err.(*wst.PageError)
				return c.Status(pageErr.FiberError.Code).JSON(fiber.Map{"error": fiber.Map{"status": pageErr.FiberError.Code, "code": pageErr.Code, "message": pageErr.Details["message"]}})
			case *fiber.Error:
				return c.Status(err.(*fiber.Error).Code).JSON(fiber.Map{"error": fiber.Map{"status": err.(*fiber.Error).Code, "message": err.(*fiber.Error).Message}})
			default:
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fiber.Map{"status": fiber.StatusInternalServerError, "message": err.Error()}})
			}
		}
		return nil
	})

	app.Middleware(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			log.Println(e)
			debug.PrintStack()
		},
	}))

	if app.Options.EnableCompression {
		app.Middleware(compress.New(app.Options.CompressionConfig))
	}

	// Warm every view before the first request. Engine errors are fatal and
	// reported untranslated.
	warmed, err := app.viewEngine.Warm()
	if err != nil {
		log.Fatalf("Error while warming views: %v", err)
	}
	if app.debug {
		log.Printf("Warmed %v views: %v\n", len(warmed), warmed)
	}

	err = app.loadPagesFixedRoutes()
	if err != nil {
		log.Fatalf("Error while loading pages fixed routes: %v", err)
	}

	for _, cb := range customRoutesCallbacks {
		cb(app)
	}

	app.loadNotFoundRoutes()

	app.Server.Get("/system/stores/stats", func(c *fiber.Ctx) error {
		allStats := make(map[string]map[string]memorykv.Stats)
		var totalSizeKiB float64
		for _, st := range *app.stores {
			if st.Viper.GetString(st.Key+".connector") == "memorykv" {
				kvDbStats := st.Connector.GetClient().(memorykv.KvDb).Stats()
				allStats[st.Name] = kvDbStats
				for _, kvStats := range kvDbStats {
					totalSizeKiB += float64(kvStats.TotalSize) / 1024.0
				}
			}
		}
		return c.JSON(fiber.Map{"stats": wst.M{
			"totalSizeKiB": totalSizeKiB,
			"stores":       allStats,
		}})
	})

	app.Server.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(app.metrics, promhttp.HandlerOpts{})))

}

func (app *PageStack) Start() error {
	log.Printf("DEBUG Server took %v ms to start\n", time.Now().UnixMilli()-app.init.UnixMilli())
	return app.Server.Listen(fmt.Sprintf("0.0.0.0:%v", app.port))
}

func (app *PageStack) Middleware(handler fiber.Handler) {
	app.Server.Use(handler)
}

func (app *PageStack) Stop() error {
	log.Println("Stopping server")
	for _, st := range *app.stores {
		err := st.Close()
		if err != nil {
			return err
		}
	}
	err := app.Server.Shutdown()
	if err != nil {
		return err
	}
	return nil
}

// New registers the default page services: a fiber app with goccy/go-json as
// codec, the view engine over the content root, config via viper, and a
// cookie TempData provider until Boot resolves a store-backed one.
func New(options ...Options) *PageStack {

	pageRegistry := make(map[string]*page.Page)
	stores := make(map[string]*statestore.Store)

	var finalOptions Options
	if len(options) > 0 {
		finalOptions = options[0]
	}
	if finalOptions.JwtSecretKey == "" {
		if s, present := os.LookupEnv("JWT_SECRET"); present {
			finalOptions.JwtSecretKey = s
		}
	}
	_debug := false
	if envDebug, _ := os.LookupEnv("DEBUG"); envDebug == "true" {
		_debug = true
	}

	appViper := viper.New()

	fileToLoad := ""

	if env, present := os.LookupEnv("GO_ENV"); present {
		fileToLoad = "config." + env
		appViper.SetConfigName(fileToLoad)
	} else {
		appViper.SetConfigName("config")
	}
	appViper.SetConfigType("json")

	appViper.AddConfigPath("./server")
	appViper.AddConfigPath(".") // for unit tests

	err := appViper.ReadInConfig()
	if err != nil {
		switch err.(type) {
		case viper.ConfigFileNotFoundError:
			log.Println(fmt.Sprintf("WARNING: %v.json not found, fallback to config.json", fileToLoad))
			appViper.SetConfigName("config")
			err := appViper.ReadInConfig()
			if err != nil {
				log.Fatalf("fatal error config file: %v", err)
			}
		default:
			log.Fatalf("fatal error config file: %v", err)
		}
	}

	if finalOptions.ContentRoot == "" {
		finalOptions.ContentRoot = appViper.GetString("views.contentRoot")
	}
	if finalOptions.ContentRoot == "" {
		finalOptions.ContentRoot = "./views"
	}
	if finalOptions.ViewExtension == "" {
		finalOptions.ViewExtension = appViper.GetString("views.extension")
	}
	if finalOptions.ViewExtension == "" {
		finalOptions.ViewExtension = ".gohtml"
	}
	if finalOptions.Layout == "" {
		finalOptions.Layout = appViper.GetString("views.layout")
	}
	if finalOptions.Layout == "" {
		finalOptions.Layout = "layouts/main"
	}
	if finalOptions.LoginRoute == "" {
		finalOptions.LoginRoute = appViper.GetString("auth.loginRoute")
	}
	if finalOptions.Port == 0 {
		finalOptions.Port = appViper.GetInt("port")
	}
	if os.Getenv("PORT") != "" {
		portFromEnv, err := strconv.Atoi(os.Getenv("PORT"))
		if err != nil {
			log.Fatalf("Invalid PORT environment variable: %v", err)
		}
		finalOptions.Port = portFromEnv
	}

	viewEngine := NewViewEngine(finalOptions.ContentRoot, finalOptions.ViewExtension, finalOptions.Layout)

	server := fiber.New(fiber.Config{
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
		Views:       viewEngine.Views(),
	})

	app := PageStack{
		Server:  server,
		Viper:   appViper,
		Options: finalOptions,

		pageRegistry: &pageRegistry,
		stores:       &stores,
		debug:        _debug,
		port:         finalOptions.Port,
		viewEngine:   viewEngine,
		tempData:     tempdata.NewCookieProvider([]byte(finalOptions.JwtSecretKey)),
		jwtSecretKey: []byte(finalOptions.JwtSecretKey),
		storeOptions: finalOptions.StoreOptions,
		metrics:      prometheus.NewRegistry(),
		init:         time.Now(),
	}

	return &app
}

func (app *PageStack) asInterface() *wst.IApp {
	return &wst.IApp{
		Debug:        app.debug,
		JwtSecretKey: app.jwtSecretKey,
		Viper:        app.Viper,
		FindPage: func(pageName string) (interface{}, error) {
			return app.FindPage(pageName)
		},
	}
}

func InitAndServe() {
	app := New()

	app.Boot()

	log.Fatal(app.Start())
}
