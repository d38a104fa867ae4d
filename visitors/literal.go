package visitors

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// TimeLayout is the literal form of time.Time values.
const TimeLayout = "2006-01-02 15:04:05.999999999"

// literalString returns the unquoted text of a literal value. Every
// literal is quoted by the platform afterwards, numerics included.
func literalString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		if v {
			return "1"
		}
		return "0"
	case time.Time:
		return v.Format(TimeLayout)
	case driver.Valuer:
		dv, err := v.Value()
		if err != nil {
			panic(fmt.Sprintf("sqlupdate: literal %T: %v", val, err))
		}
		if dv == nil {
			panic(fmt.Sprintf("sqlupdate: literal %T has a NULL value", val))
		}
		return literalString(dv)
	}

	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return literalString(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	case reflect.Pointer:
		if !rv.IsNil() {
			return literalString(rv.Elem().Interface())
		}
	}
	panic(fmt.Sprintf("sqlupdate: unsupported literal type %T", val))
}
