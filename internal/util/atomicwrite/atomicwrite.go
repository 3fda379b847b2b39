// Package atomicwrite escribe archivos de forma atómica (tmp + fsync + rename).
// Un lector concurrente ve el contenido viejo o el nuevo, nunca uno parcial.
package atomicwrite

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// WriteFile escribe data en path con permisos perm, creando el directorio si falta.
// Si rename falla (Windows con destino bloqueado) reintenta remove+rename.
func WriteFile(path string, data []byte, perm fs.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("atomicwrite: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("atomicwrite: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	// permisos antes de escribir: el secreto nunca queda legible por otros
	if err = tmp.Chmod(perm); err != nil {
		return fmt.Errorf("atomicwrite: chmod: %w", err)
	}
	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("atomicwrite: write: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("atomicwrite: fsync: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("atomicwrite: close: %w", err)
	}

	if rerr := os.Rename(tmpPath, path); rerr != nil {
		_ = os.Remove(path)
		if err = os.Rename(tmpPath, path); err != nil {
			return fmt.Errorf("atomicwrite: rename: %v (after remove: %w)", rerr, err)
		}
	}
	return nil
}
