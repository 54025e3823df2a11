package common

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"
)

// IApp is the narrow application surface handed down to pages, so the page
// package does not depend on the app package.
type IApp struct {
	Debug        bool
	JwtSecretKey []byte
	Viper        *viper.Viper
	FindPage     func(pageName string) (interface{}, error)
}

// M is the generic payload map used across pagestack: view data, TempData
// bags, error details.
type M map[string]interface{}

func (m M) GetString(key string) string {
	if m[key] == nil {
		return ""
	}
	if asSt, ok := m[key].(string); ok {
		return asSt
	}
	return fmt.Sprintf("%v", m[key])
}

func LoadFile(filePath string, out interface{}) error {
	bytes, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	err = json.Unmarshal(bytes, &out)
	if err != nil {
		return err
	}
	return nil
}

var upperMatcher = regexp.MustCompile("([A-Z])")

// DashedCase converts a Go type name to its route form:
// CustomerOrders --> customer-orders
func DashedCase(st string) string {
	if st == "" {
		return ""
	}
	res := strings.ToLower(st[:1])
	res += string(upperMatcher.ReplaceAllFunc([]byte(st[1:]), func(bytes []byte) []byte {
		return []byte("-" + strings.ToLower(string(bytes[0])))
	}))
	return res
}

type PageError struct {
	FiberError *fiber.Error
	Code       string
	Details    fiber.Map
	Name       string
}

func (err *PageError) Error() string {
	return fmt.Sprintf("%v %v: %v", err.FiberError.Code, err.Code, err.Details["message"])
}

// CreateError wraps a fiber error with a stable machine code and details
// object, so page handlers can fail with structured errors.
func CreateError(fiberError *fiber.Error, code string, details fiber.Map, name string) *PageError {
	return &PageError{
		FiberError: fiberError,
		Code:       code,
		Details:    details,
		Name:       name,
	}
}
