package tempdata

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pagestack/pagestack-go/pagestack/common"
)

// Provider moves the TempData bag across one redirect: Load reads and clears
// whatever the previous request left behind, Save persists the pending bag
// for the next request.
type Provider interface {
	Name() string
	Load(c *fiber.Ctx) (common.M, error)
	Save(c *fiber.Ctx, data common.M) error
}

// Bag is the per-request TempData view. Loaded entries survive exactly one
// request unless kept; entries written during the request are persisted for
// the next one.
type Bag struct {
	loaded common.M
	out    common.M
	kept   map[string]bool
}

func NewBag(loaded common.M) *Bag {
	if loaded == nil {
		loaded = common.M{}
	}
	return &Bag{
		loaded: loaded,
		out:    common.M{},
		kept:   make(map[string]bool),
	}
}

func (bag *Bag) Get(key string) interface{} {
	if v, ok := bag.out[key]; ok {
		return v
	}
	return bag.loaded[key]
}

func (bag *Bag) GetString(key string) string {
	if _, ok := bag.out[key]; ok {
		return bag.out.GetString(key)
	}
	if _, ok := bag.loaded[key]; ok {
		return bag.loaded.GetString(key)
	}
	return ""
}

func (bag *Bag) Set(key string, value interface{}) {
	bag.out[key] = value
}

// Keep marks a loaded entry to survive one more request.
func (bag *Bag) Keep(key string) {
	if _, ok := bag.loaded[key]; ok {
		bag.kept[key] = true
	}
}

// Pending returns what must be persisted for the next request.
func (bag *Bag) Pending() common.M {
	pending := common.M{}
	for key := range bag.kept {
		pending[key] = bag.loaded[key]
	}
	for key, value := range bag.out {
		pending[key] = value
	}
	return pending
}

func (bag *Bag) Loaded() common.M {
	return bag.loaded
}
