package web

import (
	"context"
	"log"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Context carries the gin context together with the request context that
// middleware may enrich.
type Context struct {
	*gin.Context
	Ctx context.Context

	log         *log.Logger
	queryErrors []FieldError
	paramErrors []FieldError
}

// Respond writes data as JSON with the given status code.
func (c *Context) Respond(data interface{}, status int) error {
	if status == http.StatusNoContent {
		c.Status(status)
		return nil
	}

	c.JSON(status, data)
	return nil
}

// RespondError sends an error response back to the client. Errors that are
// not *Error are logged and reported as 500 without leaking their text.
func (c *Context) RespondError(err error) error {
	resp, status := toResponse(err)
	if status >= http.StatusInternalServerError && c.log != nil {
		c.log.Printf("%s %s : %v", c.Request.Method, c.FullPath(), err)
	}

	c.AbortWithStatusJSON(status, resp)
	return nil
}

// GetQueryFunc reads an optional query parameter converted to kind. It
// returns a pointer of the matching type or nil when the key is absent.
// Conversion failures are collected for ValidQuery.
func (c *Context) GetQueryFunc(kind reflect.Kind, key string) interface{} {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return nil
	}

	v, err := convert(kind, raw)
	if err != nil {
		c.queryErrors = append(c.queryErrors, FieldError{Field: key, Error: err.Error()})
		return nil
	}

	return v
}

// ValidQuery reports query conversion failures collected so far.
func (c *Context) ValidQuery() error {
	if len(c.queryErrors) == 0 {
		return nil
	}
	return &Error{Err: errors.New("invalid query"), Status: http.StatusBadRequest, Fields: c.queryErrors}
}

// GetParam reads a path parameter converted to kind. On failure the zero
// value of the kind is returned and the error is kept for ValidParam.
func (c *Context) GetParam(kind reflect.Kind, key string) interface{} {
	raw := c.Param(key)

	v, err := convert(kind, raw)
	if err != nil {
		c.paramErrors = append(c.paramErrors, FieldError{Field: key, Error: err.Error()})
		return reflect.Zero(kindType(kind)).Interface()
	}

	return reflect.ValueOf(v).Elem().Interface()
}

// ValidParam reports path parameter conversion failures.
func (c *Context) ValidParam() error {
	if len(c.paramErrors) == 0 {
		return nil
	}
	return &Error{Err: errors.New("invalid param"), Status: http.StatusBadRequest, Fields: c.paramErrors}
}

// BindFunc decodes the request body into request and checks that the named
// fields are set. Field names may also be given comma separated.
func (c *Context) BindFunc(request interface{}, required ...string) error {
	if err := c.ShouldBind(request); err != nil {
		return NewRequestError(errors.Wrap(err, "binding request"), http.StatusBadRequest)
	}

	return ValidateStruct(request, required...)
}

// ValidateStruct checks that every named field of s holds a non-zero value.
// s must be a pointer to a struct.
func ValidateStruct(s interface{}, fields ...string) error {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return NewRequestError(errors.Errorf("validate: expected struct, got %s", v.Kind()), http.StatusInternalServerError)
	}

	var missing []FieldError
	for _, group := range fields {
		for _, name := range strings.Split(group, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}

			f := v.FieldByName(name)
			if !f.IsValid() {
				return NewRequestError(errors.Errorf("validate: unknown field %q", name), http.StatusInternalServerError)
			}
			if f.IsZero() || (f.Kind() == reflect.Ptr && f.Elem().IsZero()) {
				missing = append(missing, FieldError{Field: jsonName(v.Type(), name), Error: "required"})
			}
		}
	}

	if len(missing) > 0 {
		return &Error{Err: errors.New("field validation error"), Status: http.StatusBadRequest, Fields: missing}
	}

	return nil
}

func jsonName(t reflect.Type, field string) string {
	sf, ok := t.FieldByName(field)
	if !ok {
		return field
	}
	tag := strings.Split(sf.Tag.Get("json"), ",")[0]
	if tag == "" || tag == "-" {
		return field
	}
	return tag
}

func convert(kind reflect.Kind, raw string) (interface{}, error) {
	switch kind {
	case reflect.Int:
		i, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.Errorf("%q is not an integer", raw)
		}
		return &i, nil
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errors.Errorf("%q is not a boolean", raw)
		}
		return &b, nil
	case reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.Errorf("%q is not a number", raw)
		}
		return &f, nil
	case reflect.String:
		if raw == "" {
			return nil, errors.New("empty value")
		}
		return &raw, nil
	default:
		return nil, errors.Errorf("unsupported kind %s", kind)
	}
}

func kindType(kind reflect.Kind) reflect.Type {
	switch kind {
	case reflect.Int:
		return reflect.TypeOf(0)
	case reflect.Bool:
		return reflect.TypeOf(false)
	case reflect.Float64:
		return reflect.TypeOf(0.0)
	default:
		return reflect.TypeOf("")
	}
}
