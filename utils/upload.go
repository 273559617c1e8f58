package utils

import (
	"io"
	"net/http"
)

const MaxUploadSize = 10 << 20

// ReadFormFile reads one uploaded file field into memory. The second return
// reports whether the field was present at all, so callers can distinguish
// "no file" from a broken upload.
func ReadFormFile(r *http.Request, field string) ([]byte, bool, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadSize))
	if err != nil {
		return nil, true, err
	}
	return data, true, nil
}
