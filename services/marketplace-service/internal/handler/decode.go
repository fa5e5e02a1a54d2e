package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

const maxJSONBodyBytes = 1 << 20

var errBadRequest = errors.New("malformed request body")

func isForm(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data"
}

// decodeRequest fills dst from a JSON body or, for form posts, from the form field named
// after each json tag.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) error {
	if isForm(r) {
		values, err := formValues(w, r)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(values)
		if err != nil {
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return decodeJSON(raw, dst)
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if len(raw) == 0 {
		return fmt.Errorf("%w: empty body", errBadRequest)
	}
	return decodeJSON(raw, dst)
}

func decodeJSON(raw []byte, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// formValues returns the first value of every posted form field. The body is capped
// at maxJSONBodyBytes.
func formValues(w http.ResponseWriter, r *http.Request) (map[string]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var err error
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		err = r.ParseMultipartForm(maxJSONBodyBytes)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}

	values := make(map[string]string, len(r.PostForm))
	for k, v := range r.PostForm {
		if len(v) > 0 {
			values[k] = v[0]
		}
	}
	return values, nil
}
