// Package validation registers custom binding tags on gin's validator.
package validation

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// symbolPattern は銘柄コードの形式です (例: 005930, AAPL, BRK.B)。
var symbolPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]{0,15}$`)

var (
	once    sync.Once
	errInit error
)

// IsSymbol reports whether s is a well-formed symbol code.
func IsSymbol(s string) bool {
	return symbolPattern.MatchString(s)
}

// Register adds the "symbol" tag to gin's default validator. It is safe to call more than once.
func Register() error {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			errInit = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		errInit = v.RegisterValidation("symbol", func(fl validator.FieldLevel) bool {
			return IsSymbol(fl.Field().String())
		})
	})
	return errInit
}
