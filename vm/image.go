package vm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
)

// Image is the serialized container an Assembler produces and an
// Interpreter consumes: an entry offset, a data blob, a text (instruction)
// stream, and a debug-only label table (spec §3).
type Image struct {
	Entry  uint64
	Data   []byte
	Text   []byte
	Labels map[uint64]string
}

// CodeView returns the unified code-space view running code sees:
// [ 8-byte entry header ][ data ][ text ]. Every absolute offset in the
// image - Entry, jump/call targets, label values - indexes into this view.
func (img *Image) CodeView() []byte {
	buf := make([]byte, 8+len(img.Data)+len(img.Text))
	binary.LittleEndian.PutUint64(buf[:8], img.Entry)
	copy(buf[8:], img.Data)
	copy(buf[8+len(img.Data):], img.Text)
	return buf
}

// Serialize writes the on-disk object format (spec §4.3), fully
// little-endian:
//
//	entry:   u64
//	data_len u16, data bytes
//	text_len u16, text bytes
//	n_offsets u16, offset_i u64 (xN)
//	n_labels  u16, (name_len_i u16, name_bytes_i) (xN)
func (img *Image) Serialize() ([]byte, error) {
	if len(img.Data) > 0xFFFF {
		return nil, fmt.Errorf("data section too large to serialize: %d bytes", len(img.Data))
	}
	if len(img.Text) > 0xFFFF {
		return nil, fmt.Errorf("text section too large to serialize: %d bytes", len(img.Text))
	}

	// Deterministic ordering so two serializations of the same image are
	// byte-identical (required by the assemble/disassemble round-trip
	// property in spec §8).
	offsets := make([]uint64, 0, len(img.Labels))
	for off := range img.Labels {
		offsets = append(offsets, off)
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })

	var buf bytes.Buffer
	var u64 [8]byte
	var u16 [2]byte

	binary.LittleEndian.PutUint64(u64[:], img.Entry)
	buf.Write(u64[:])

	binary.LittleEndian.PutUint16(u16[:], uint16(len(img.Data)))
	buf.Write(u16[:])
	buf.Write(img.Data)

	binary.LittleEndian.PutUint16(u16[:], uint16(len(img.Text)))
	buf.Write(u16[:])
	buf.Write(img.Text)

	binary.LittleEndian.PutUint16(u16[:], uint16(len(offsets)))
	buf.Write(u16[:])
	for _, off := range offsets {
		binary.LittleEndian.PutUint64(u64[:], off)
		buf.Write(u64[:])
	}

	binary.LittleEndian.PutUint16(u16[:], uint16(len(offsets)))
	buf.Write(u16[:])
	for _, off := range offsets {
		name := img.Labels[off]
		binary.LittleEndian.PutUint16(u16[:], uint16(len(name)))
		buf.Write(u16[:])
		buf.WriteString(name)
	}

	return buf.Bytes(), nil
}

// Deserialize parses the wire format produced by Serialize.
func Deserialize(raw []byte) (*Image, error) {
	r := bytes.NewReader(raw)
	readU16 := func() (uint16, error) {
		var b [2]byte
		if _, err := r.Read(b[:]); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint16(b[:]), nil
	}
	readU64 := func() (uint64, error) {
		var b [8]byte
		if _, err := r.Read(b[:]); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint64(b[:]), nil
	}

	entry, err := readU64()
	if err != nil {
		return nil, fmt.Errorf("reading entry: %w", err)
	}

	dataLen, err := readU16()
	if err != nil {
		return nil, fmt.Errorf("reading data_len: %w", err)
	}
	data := make([]byte, dataLen)
	if _, err := r.Read(data); err != nil {
		return nil, fmt.Errorf("reading data: %w", err)
	}

	textLen, err := readU16()
	if err != nil {
		return nil, fmt.Errorf("reading text_len: %w", err)
	}
	text := make([]byte, textLen)
	if _, err := r.Read(text); err != nil {
		return nil, fmt.Errorf("reading text: %w", err)
	}

	nOffsets, err := readU16()
	if err != nil {
		return nil, fmt.Errorf("reading n_offsets: %w", err)
	}
	offsets := make([]uint64, nOffsets)
	for i := range offsets {
		offsets[i], err = readU64()
		if err != nil {
			return nil, fmt.Errorf("reading offset %d: %w", i, err)
		}
	}

	nLabels, err := readU16()
	if err != nil {
		return nil, fmt.Errorf("reading n_labels: %w", err)
	}
	if nLabels != nOffsets {
		return nil, fmt.Errorf("n_offsets (%d) != n_labels (%d)", nOffsets, nLabels)
	}

	labels := make(map[uint64]string, nLabels)
	for i := 0; i < int(nLabels); i++ {
		nameLen, err := readU16()
		if err != nil {
			return nil, fmt.Errorf("reading label %d name_len: %w", i, err)
		}
		name := make([]byte, nameLen)
		if _, err := r.Read(name); err != nil {
			return nil, fmt.Errorf("reading label %d name: %w", i, err)
		}
		labels[offsets[i]] = string(name)
	}

	return &Image{Entry: entry, Data: data, Text: text, Labels: labels}, nil
}
