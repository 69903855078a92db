package httpclient

import (
	"errors"
	"fmt"
	"io"
)

// BodyTooLargeError reports a reply body longer than the configured cap.
type BodyTooLargeError struct {
	Limit int64
}

func (e BodyTooLargeError) Error() string {
	return fmt.Sprintf("response body exceeded limit of %d bytes", e.Limit)
}

// IsBodyTooLarge reports whether err came from ReadBody hitting its cap.
func IsBodyTooLarge(err error) bool {
	var limitErr BodyTooLargeError
	return errors.As(err, &limitErr)
}

// ReadBody reads r up to limit bytes. One extra byte is read so an oversized
// body is reported instead of silently truncated. limit <= 0 reads everything.
func ReadBody(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, BodyTooLargeError{Limit: limit}
	}
	return data, nil
}
