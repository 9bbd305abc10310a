// Package objectfile handles reading and writing the on-disk form of a
// vm.Image: a plain file holding the wire format from Image.Serialize, a
// mmap-backed variant for loading large images without copying them into
// the Go heap up front, and a gzip-framed variant for distribution.
package objectfile

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/klauspost/compress/gzip"

	"stackvm/vm"
)

// Save writes img's wire format to path.
func Save(path string, img *vm.Image) error {
	raw, err := img.Serialize()
	if err != nil {
		return fmt.Errorf("serializing image: %w", err)
	}
	return os.WriteFile(path, raw, 0o644)
}

// Load reads and deserializes the object file at path with a plain read.
func Load(path string) (*vm.Image, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return vm.Deserialize(raw)
}

// LoadMapped reads and deserializes the object file at path via mmap, so
// the kernel pages it in on demand instead of the loader copying the
// whole file up front - useful for large images loaded repeatedly by
// short-lived CLI invocations (cmd/stackvm, cmd/stackdbg).
func LoadMapped(path string) (*vm.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmapping %s: %w", path, err)
	}
	defer m.Unmap()

	// Deserialize copies every field it needs (data/text slices, label
	// strings) out of the mapping before it's returned, so the image
	// stays valid after Unmap runs.
	return vm.Deserialize([]byte(m))
}

// SaveCompressed writes img's wire format to path framed in gzip, for
// distributing object files more compactly than Save.
func SaveCompressed(path string, img *vm.Image) error {
	raw, err := img.Serialize()
	if err != nil {
		return fmt.Errorf("serializing image: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	gw := gzip.NewWriter(f)
	if _, err := gw.Write(raw); err != nil {
		gw.Close()
		return fmt.Errorf("writing compressed image: %w", err)
	}
	return gw.Close()
}

// LoadCompressed reads and deserializes a gzip-framed object file written
// by SaveCompressed.
func LoadCompressed(path string) (*vm.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("opening gzip stream: %w", err)
	}
	defer gr.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, gr); err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	return vm.Deserialize(buf.Bytes())
}
