/*
Package req parses incoming form posts, URL-encoded and multipart, and maps
parse failures to errs codes.
*/
package req

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"profilelounge/internal/pkg/errs"
)

const (
	// MaxFormMemory is the memory ParseMultipartForm may use before spilling file parts to disk.
	MaxFormMemory int64 = 8 << 20 // 8 MB

	// MaxRequestFileSize caps the whole request body, files included.
	MaxRequestFileSize int64 = 10 << 20 // 10 MB
)

// ParseForm parses a URL-encoded or multipart form post, capping the body at MaxRequestFileSize.
func ParseForm(w http.ResponseWriter, r *http.Request) *errs.CustomError {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestFileSize)

	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(MaxFormMemory)
	} else {
		err = r.ParseForm()
	}

	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}
		return errs.NewError(errs.ErrFormParseFailed)
	}

	return nil
}

// FormValue returns the trimmed value of a parsed form field.
func FormValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.PostFormValue(key))
}

// FormFile reads an optional uploaded file from a parsed multipart form.
// A missing part yields ok=false with no error.
func FormFile(r *http.Request, key string) (name string, data []byte, ok bool, customErr *errs.CustomError) {
	if r.MultipartForm == nil {
		return "", nil, false, nil
	}

	file, header, err := r.FormFile(key)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil, false, nil
		}
		return "", nil, false, errs.NewError(errs.ErrFormParseFailed)
	}
	defer file.Close()

	if header.Size == 0 {
		return "", nil, false, nil
	}

	data, err = readAll(file)
	if err != nil {
		return "", nil, false, errs.NewError(errs.ErrFormParseFailed)
	}

	return header.Filename, data, true, nil
}

func readAll(f multipart.File) ([]byte, error) {
	return io.ReadAll(io.LimitReader(f, MaxRequestFileSize))
}
