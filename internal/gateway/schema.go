package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"reflect"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decode reads one canonical JSON document into dst and validates it.
// Unknown fields are tolerated; missing required fields are not.
func decode(r io.Reader, dst any) error {
	if err := json.NewDecoder(r).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return check(dst)
}

func check(v any) error {
	var err error
	if rv := reflect.Indirect(reflect.ValueOf(v)); rv.Kind() == reflect.Slice {
		err = validate.Var(rv.Interface(), "dive")
	} else {
		err = validate.Struct(v)
	}
	if err != nil {
		log.Printf("gateway: rejected backend payload %T: %v", v, err)
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
