// Package codec converts files to and from base64 text.
//
// Files are buffered whole in memory; the base64 text carries no envelope or checksum.
package codec

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
)

// EncodeFile reads the file at path and returns its standard base64 encoding.
func EncodeFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("cannot read file to encode: %w", err)
	}
	return EncodeBytes(data), nil
}

// DecodeToFile decodes encoded and writes the bytes to path, creating parent
// directories as needed. It returns the path written.
func DecodeToFile(path, encoded string) (string, error) {
	data, err := DecodeString(encoded)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("cannot create directory for %s: %w", path, err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("cannot write decoded file: %w", err)
	}
	return path, nil
}

func EncodeBytes(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeString decodes standard base64, ignoring line breaks that wrapped output may contain.
func DecodeString(encoded string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(stripNewlines(encoded))
	if err != nil {
		return nil, fmt.Errorf("invalid base64 data: %w", err)
	}
	return data, nil
}

func stripNewlines(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\n' && s[i] != '\r' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
