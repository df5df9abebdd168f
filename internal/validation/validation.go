// Package validation registers the custom binding rules used by request structs.
package validation

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/viznest/viznest-backend/internal/app/model"
	"github.com/viznest/viznest-backend/pkg/util"
)

var once sync.Once

// Register installs the json field-name func and the orderstatus and
// hexcolor tags on gin's validator. Safe to call more than once.
func Register() {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonTagName)
		_ = v.RegisterValidation("orderstatus", orderStatus)
		_ = v.RegisterValidation("hexcolor", hexColor, true)
	})
}

func jsonTagName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

func orderStatus(fl validator.FieldLevel) bool {
	return model.OrderStatus(fl.Field().String()).Valid()
}

// hexColor accepts an empty value; pair with required when a color is mandatory
func hexColor(fl validator.FieldLevel) bool {
	_, err := util.NormalizeHexColor(fl.Field().String())
	return err == nil
}
