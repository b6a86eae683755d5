package graph

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/flowgraph/pkg/errors"
)

// =============================================================================
// Dataset Serialization API
// =============================================================================

// FormatFromPath infers the dataset format from a file extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "cannot infer dataset format from %q (want .json, .yaml or .toml)", path)
}

// ReadFile reads a dataset file, inferring the format from its extension.
func ReadFile(path string) (Dataset, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Dataset{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Dataset{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "dataset %s", path)
		}
		return Dataset{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, format)
}

// Read decodes a dataset in the given format from r.
func Read(r io.Reader, format string) (Dataset, error) {
	var d Dataset
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&d); err != nil {
			return Dataset{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json")
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&d); err != nil && err != io.EOF {
			return Dataset{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml")
		}
	case FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(&d); err != nil {
			return Dataset{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode toml")
		}
	default:
		return Dataset{}, errors.New(errors.ErrCodeInvalidFormat, "unsupported dataset format %q", format)
	}
	return d, nil
}

// Unmarshal decodes JSON bytes into a dataset.
func Unmarshal(data []byte) (Dataset, error) {
	return Read(bytes.NewReader(data), FormatJSON)
}

// Write encodes a dataset in the given format to w.
func Write(d Dataset, w io.Writer, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return enc.Close()
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(d); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported dataset format %q", format)
	}
	return nil
}

// Marshal encodes a dataset as indented JSON.
func Marshal(d Dataset) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(d, &buf, FormatJSON); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Hash returns a stable content hash of the dataset, used as a cache key for
// settled layouts. Record order is significant.
func Hash(d Dataset) string {
	data, _ := json.Marshal(d)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
