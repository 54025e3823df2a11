package pagestack

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
)

// ViewEngine wraps the fiber html template engine and adds boot-time warming:
// every template in the content root is compiled once, so the first request
// never pays compilation and malformed templates fail the boot instead of a
// user request. Templates are never executed with synthetic data: a view that
// depends on handler-supplied values must not fail the boot.
type ViewEngine struct {
	engine    *html.Engine
	root      string
	extension string
	layout    string
}

func NewViewEngine(root string, extension string, layout string) *ViewEngine {
	return &ViewEngine{
		engine:    html.New(root, extension),
		root:      root,
		extension: extension,
		layout:    layout,
	}
}

// Views exposes the engine in the shape fiber.Config wants.
func (ve *ViewEngine) Views() fiber.Views {
	return ve.engine
}

func (ve *ViewEngine) AddFunc(name string, fn interface{}) {
	ve.engine.AddFunc(name, fn)
}

// Warm compiles every template under the content root and verifies that each
// one, plus the configured layout, resolves by name in the compiled set. It
// returns the names it warmed. Errors from the underlying engine are returned
// as-is.
func (ve *ViewEngine) Warm() ([]string, error) {
	err := ve.engine.Load()
	if err != nil {
		return nil, err
	}

	if ve.layout != "" && ve.engine.Templates.Lookup(ve.layout) == nil {
		return nil, fmt.Errorf("layout %v does not exist", ve.layout)
	}

	var warmed []string
	err = filepath.WalkDir(ve.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(d.Name(), ve.extension) {
			return nil
		}
		rel, err := filepath.Rel(ve.root, path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.ToSlash(rel), ve.extension)

		if ve.engine.Templates.Lookup(name) == nil {
			return fmt.Errorf("template %v does not exist", name)
		}

		warmed = append(warmed, name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return warmed, nil
}
