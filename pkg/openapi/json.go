package openapi

import (
	"encoding/json"
	"io"
	"os"
)

// MarshalJSON serializes the spec to indented JSON with a trailing newline.
func MarshalJSON(spec *Spec) ([]byte, error) {
	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// WriteJSON writes the indented spec to w.
func WriteJSON(spec *Spec, w io.Writer) error {
	data, err := MarshalJSON(spec)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteFile writes the indented spec to filename.
func WriteFile(spec *Spec, filename string) error {
	data, err := MarshalJSON(spec)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}
