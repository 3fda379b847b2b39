// Package httpx tiene helpers HTTP compartidos por los validators de providers.
package httpx

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// MaxBody es el máximo que se lee de una respuesta de provider (1 MiB).
const MaxBody = 1 << 20

// DefaultTimeout aplica cuando la config no define uno.
const DefaultTimeout = 10 * time.Second

// NewClient crea un *http.Client con timeout total por request.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// ReadBody lee hasta MaxBody bytes y cierra el body.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, MaxBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return b, nil
}

// Snippet recorta un body para incluirlo en detalles de error.
func Snippet(b []byte) string {
	const max = 512
	if len(b) > max {
		return string(b[:max]) + "…"
	}
	return string(b)
}

// Is2xx reporta si el status es de éxito.
func Is2xx(code int) bool { return code >= 200 && code < 300 }

// StripURL devuelve la causa de un *url.Error sin la URL, que puede llevar secrets o
// tokens en la query.
func StripURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s: %w", ue.Op, ue.Err)
	}
	return err
}
