package api

import (
	"encoding/json"
	"errors"
	"io"
	"maps"
	"mime"
	"net/http"
	"reflect"
	"slices"
	"strconv"

	"item-server/internal/apperr"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/form/v4"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

var formDecoder = form.NewDecoder()

// decodeRequest fills dst from a JSON, urlencoded or multipart body, picked
// by Content-Type. Every field of the wrong type is reported; dst still gets
// the fields that did decode.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if mediaType == "multipart/form-data" {
			if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
				return apperr.Validation("body", "malformed form body")
			}
		} else if err := r.ParseForm(); err != nil {
			return apperr.Validation("body", "malformed form body")
		}
		if err := formDecoder.Decode(dst, r.PostForm); err != nil {
			var decodeErrs form.DecodeErrors
			if errors.As(err, &decodeErrs) && len(decodeErrs) > 0 {
				return wrongTypes(slices.Sorted(maps.Keys(decodeErrs)))
			}
			return apperr.Validation("body", "malformed form body")
		}
		return nil
	default:
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return apperr.Validation("body", "must be at most 1 MiB")
			}
			return apperr.Validation("body", "could not be read")
		}
		err = json.Unmarshal(body, dst)
		if err == nil {
			return nil
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			if fields := jsonWrongTypes(body, dst); len(fields) > 0 {
				return wrongTypes(fields)
			}
		}
		return apperr.Validation("body", "malformed JSON body")
	}
}

func wrongTypes(fields []string) *apperr.ValidationError {
	verr := &apperr.ValidationError{}
	for _, field := range fields {
		verr.Add(field, "has the wrong type")
	}
	return verr
}

// jsonWrongTypes decodes each top-level key of body on its own, because
// encoding/json only reports the first type mismatch.
func jsonWrongTypes(body []byte, dst any) []string {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}

	target := reflect.TypeOf(dst).Elem()
	var fields []string
	for _, key := range slices.Sorted(maps.Keys(raw)) {
		single, err := json.Marshal(map[string]json.RawMessage{key: raw[key]})
		if err != nil {
			continue
		}
		var typeErr *json.UnmarshalTypeError
		if err := json.Unmarshal(single, reflect.New(target).Interface()); errors.As(err, &typeErr) {
			fields = append(fields, key)
		}
	}
	return fields
}

// withConstraints completes a wrong-type report from decodeRequest with every
// constraint the rest of the body violates. Other errors pass through.
func withConstraints(decodeErr error, validate func() error) error {
	var verr *apperr.ValidationError
	if !errors.As(decodeErr, &verr) || verr.Has("body") {
		return decodeErr
	}

	var more *apperr.ValidationError
	if errors.As(validate(), &more) {
		for _, f := range more.Fields {
			if !verr.Has(f.Field) {
				verr.Add(f.Field, f.Message)
			}
		}
	}
	return verr
}

// uuidParam parses a path id. An id that cannot exist is simply not found.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperr.ErrNotFound
	}
	return id, nil
}

// intQuery returns the integer query parameter name, or 0 when it is absent.
func intQuery(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation(name, "must be an integer")
	}
	return v, nil
}
