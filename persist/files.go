package persist

import (
	"fmt"
	"os"
	"path/filepath"
)

// namedWrite is one target file of an atomic group write.
type namedWrite struct {
	target string
	data   []byte
}

// writeFiles writes every target to a temp file in its directory, syncs them
// all, and only then renames them into place in order. A failure before the
// first rename leaves every target untouched.
func writeFiles(writes ...namedWrite) error {
	temps := make([]string, 0, len(writes))
	defer func() {
		for _, tmp := range temps {
			if tmp != "" {
				_ = os.Remove(tmp)
			}
		}
	}()

	for _, w := range writes {
		dir := filepath.Dir(w.target)
		tmp, err := os.CreateTemp(dir, filepath.Base(w.target)+".tmp-*")
		if err != nil {
			return fmt.Errorf("persist: failed to create temp file for %s: %w", w.target, err)
		}
		temps = append(temps, tmp.Name())
		_ = tmp.Chmod(0o644)
		if err := writeAndSync(tmp, w.data); err != nil {
			return fmt.Errorf("persist: failed to write %s: %w", w.target, err)
		}
	}

	for i, w := range writes {
		if err := os.Rename(temps[i], w.target); err != nil {
			return fmt.Errorf("persist: failed to rename %s: %w", w.target, err)
		}
		temps[i] = ""
	}
	temps = temps[:0]

	dirs := map[string]bool{}
	for _, w := range writes {
		dir := filepath.Dir(w.target)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if d, err := os.Open(dir); err == nil {
			_ = d.Sync()
			_ = d.Close()
		}
	}
	return nil
}

func writeAndSync(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
