package metadata

import (
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/mzcache/codec"
	"github.com/hupe1980/mzcache/persistence"
)

// SidecarVersion is the current sidecar document version.
const SidecarVersion = 1

// sidecar is the on-disk document. The codec name is recorded so that a
// sidecar written with one JSON codec is read back with the same one.
type sidecar struct {
	Version int    `json:"version"`
	Codec   string `json:"codec"`
	*Experiment
}

// SaveSidecar writes m to path atomically using c (codec.Default when nil).
func SaveSidecar(path string, m *Experiment, c codec.Codec) error {
	data, err := EncodeSidecar(m, c)
	if err != nil {
		return err
	}
	return persistence.SaveToFile(path, persistence.SaveOptions{}, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// LoadSidecar reads a sidecar written by SaveSidecar.
func LoadSidecar(path string) (*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &persistence.IOError{Op: "open", Path: path, Offset: -1, Err: err}
	}
	m, err := DecodeSidecar(data)
	if err != nil {
		return nil, fmt.Errorf("%w (sidecar %s)", err, path)
	}
	return m, nil
}

// EncodeSidecar returns the sidecar document for m using c
// (codec.Default when nil).
func EncodeSidecar(m *Experiment, c codec.Codec) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	data, err := c.Marshal(sidecar{Version: SidecarVersion, Codec: c.Name(), Experiment: m})
	if err != nil {
		return nil, fmt.Errorf("metadata: encode sidecar: %w", err)
	}
	return data, nil
}

// DecodeSidecar parses and validates a sidecar document.
func DecodeSidecar(data []byte) (*Experiment, error) {
	var head struct {
		Version int    `json:"version"`
		Codec   string `json:"codec"`
	}
	if err := codec.Default.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("metadata: decode sidecar: %w", err)
	}
	if head.Version != SidecarVersion {
		return nil, fmt.Errorf("metadata: sidecar has unsupported version %d", head.Version)
	}
	c, ok := codec.ByName(head.Codec)
	if !ok {
		return nil, fmt.Errorf("metadata: sidecar uses unknown codec %q", head.Codec)
	}

	doc := sidecar{Experiment: &Experiment{}}
	if err := c.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("metadata: decode sidecar: %w", err)
	}
	if err := Validate(doc.Experiment); err != nil {
		return nil, err
	}
	return doc.Experiment, nil
}
