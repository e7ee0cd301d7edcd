// Package formutil binds request bodies into structs.
//
// JSON bodies are decoded as-is. URL-encoded and multipart forms fill the
// struct's string fields, matched by their json tag:
//
//	type signInForm struct {
//		Email    string `json:"email" validate:"required,email" label:"Correo"`
//		Password string `json:"password" validate:"required" label:"Contraseña"`
//	}
//
//	var in signInForm
//	if err := formutil.Bind(r, &in); err != nil { ... }
//
// After decoding, the struct's validate tags are checked through inputval.
package formutil

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"github.com/dalemusser/mentorhub/internal/app/system/apperr"
	"github.com/dalemusser/mentorhub/internal/app/system/inputval"
)

// MaxBodyBytes caps JSON and url-encoded bodies. Multipart uploads are
// limited by their handlers.
const MaxBodyBytes = 1 << 20

// MsgBadBody is returned for bodies that cannot be decoded.
const MsgBadBody = "Datos inválidos."

// Bind decodes r's body into dst (a pointer to struct) and validates it.
// Failures are apperr validation errors.
func Bind(r *http.Request, dst any) error {
	if err := decode(r, dst); err != nil {
		return apperr.Validation(MsgBadBody)
	}
	if res := inputval.Validate(dst); res.HasErrors() {
		return apperr.Validation(res.First())
	}
	return nil
}

func decode(r *http.Request, dst any) error {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "multipart/form-data":
		if r.MultipartForm == nil {
			if err := r.ParseMultipartForm(MaxBodyBytes); err != nil {
				return err
			}
		}
		return fill(r, dst)
	case "application/x-www-form-urlencoded":
		r.Body = http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return err
		}
		return fill(r, dst)
	default:
		if r.Body == nil {
			return nil
		}
		dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
		if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	}
}

// fill copies form values into the string fields of dst.
func fill(r *http.Request, dst any) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return errors.New("formutil: destination must be a pointer to struct")
	}
	v = v.Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Type.Kind() != reflect.String || !f.IsExported() {
			continue
		}
		name := strings.Split(f.Tag.Get("json"), ",")[0]
		if name == "" || name == "-" {
			name = f.Name
		}
		if vals, ok := r.Form[name]; ok && len(vals) > 0 {
			v.Field(i).SetString(vals[0])
		}
	}
	return nil
}
