package tempdata

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/pagestack/pagestack-go/pagestack/common"
	"github.com/pagestack/pagestack-go/pagestack/statestore"
)

const SessionCookieName = "pagestack_session"

const tempDataBucket = "tempdata"

// DefaultTTL bounds how long an unclaimed TempData bag lives in the store.
const DefaultTTL = 10 * time.Minute

// StoreProvider keeps the TempData bag in a state store (memorykv, redis or
// mongodb), keyed by a session id cookie.
type StoreProvider struct {
	store *statestore.Store
	ttl   time.Duration
}

func NewStoreProvider(store *statestore.Store, ttl time.Duration) *StoreProvider {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &StoreProvider{
		store: store,
		ttl:   ttl,
	}
}

func (provider *StoreProvider) Name() string {
	return "store:" + provider.store.Name
}

func (provider *StoreProvider) Load(c *fiber.Ctx) (common.M, error) {
	sessionId := c.Cookies(SessionCookieName)
	if sessionId == "" {
		return nil, nil
	}
	payload, err := provider.store.Get(tempDataBucket, sessionId)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, nil
	}
	err = provider.store.Delete(tempDataBucket, sessionId)
	if err != nil {
		return nil, err
	}
	var data common.M
	err = json.Unmarshal(payload, &data)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (provider *StoreProvider) Save(c *fiber.Ctx, data common.M) error {
	sessionId := c.Cookies(SessionCookieName)
	if len(data) == 0 {
		if sessionId != "" {
			return provider.store.Delete(tempDataBucket, sessionId)
		}
		return nil
	}
	if sessionId == "" {
		sessionId = uuid.New().String()
		c.Cookie(&fiber.Cookie{
			Name:     SessionCookieName,
			Value:    sessionId,
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Path:     "/",
		})
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return provider.store.Set(tempDataBucket, sessionId, payload, provider.ttl)
}
