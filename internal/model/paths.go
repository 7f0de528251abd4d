package model

import (
	"os"
	"path/filepath"
)

// defaultDataDir returns ~/.docanswer/<name>, or a relative path when the home directory is unknown
func defaultDataDir(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".docanswer", name)
	}
	return filepath.Join(home, ".docanswer", name)
}
