package tempdata

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"log"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/pagestack/pagestack-go/pagestack/common"
)

const CookieName = "pagestack_tempdata"

// CookieProvider keeps the TempData bag in a secretbox-sealed cookie, so no
// server-side store is required. The payload is JSON, sealed with a key
// derived from the app secret, nonce prepended, base64url encoded.
type CookieProvider struct {
	key [32]byte
}

func NewCookieProvider(secret []byte) *CookieProvider {
	provider := &CookieProvider{}
	if len(secret) == 0 {
		// an empty secret would derive a key anyone can forge against
		log.Println("WARNING: no secret configured, sealing tempdata cookies with a random per-boot key")
		_, err := rand.Read(provider.key[:])
		if err != nil {
			panic(err)
		}
		return provider
	}
	provider.key = sha256.Sum256(secret)
	return provider
}

func (provider *CookieProvider) Name() string {
	return "cookie"
}

func (provider *CookieProvider) Load(c *fiber.Ctx) (common.M, error) {
	raw := c.Cookies(CookieName)
	if raw == "" {
		return nil, nil
	}
	provider.clear(c)

	sealed, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil, err
	}
	if len(sealed) < 24 {
		return nil, errors.New("tempdata cookie too short")
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	opened, ok := secretbox.Open(nil, sealed[24:], &nonce, &provider.key)
	if !ok {
		return nil, errors.New("tempdata cookie failed authentication")
	}
	var data common.M
	err = json.Unmarshal(opened, &data)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (provider *CookieProvider) Save(c *fiber.Ctx, data common.M) error {
	if len(data) == 0 {
		provider.clear(c)
		return nil
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var nonce [24]byte
	_, err = rand.Read(nonce[:])
	if err != nil {
		return err
	}
	sealed := secretbox.Seal(nonce[:], payload, &nonce, &provider.key)
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    base64.RawURLEncoding.EncodeToString(sealed),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
	return nil
}

func (provider *CookieProvider) clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
}
