// Package archive implements the compressed, length-delimited archive
// sink: a small self-describing container of a descriptor set followed by
// a sequence of (key, payload) message pairs, written and read
// sequentially.
package archive

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/jeffutter/protofaker/internal/sink"
)

// Writer appends messages to a new archive file. The leading 4-byte count
// is a placeholder until Close, which rewinds the file and overwrites it
// with the final count.
type Writer struct {
	file     *os.File
	enc      *zstd.Encoder
	keyField string
	count    uint32
}

// Create opens path for writing and emits the descriptor set as the first
// framed entry of the compressed body. keyField names the field each
// message's routing key is drawn from (see sink.ExtractKey).
func Create(path string, descriptorSet []byte, keyField string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create archive %q: %w", path, err)
	}

	var placeholder [4]byte
	if _, err := f.Write(placeholder[:]); err != nil {
		f.Close()
		return nil, fmt.Errorf("write count placeholder: %w", err)
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	w := &Writer{file: f, enc: enc, keyField: keyField}
	if err := writeLenPrefixed(w.enc, descriptorSet); err != nil {
		return nil, fmt.Errorf("write descriptor set: %w", err)
	}
	return w, nil
}

// Append writes one message's key and payload as a framed entry.
func (w *Writer) Append(msg *dynamicpb.Message) error {
	key, err := sink.ExtractKey(msg, w.keyField)
	if err != nil {
		return fmt.Errorf("archive append: %w", err)
	}
	payload, err := proto.Marshal(msg)
	if err != nil {
		return fmt.Errorf("archive append: marshal payload: %w", err)
	}
	if err := writeLenPrefixed(w.enc, key); err != nil {
		return fmt.Errorf("archive append: write key: %w", err)
	}
	if err := writeLenPrefixed(w.enc, payload); err != nil {
		return fmt.Errorf("archive append: write payload: %w", err)
	}
	w.count++
	return nil
}

// Close flushes the compressed stream and rewrites the leading count.
func (w *Writer) Close() error {
	if err := w.enc.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("close zstd encoder: %w", err)
	}
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		w.file.Close()
		return fmt.Errorf("rewind archive: %w", err)
	}
	var countBytes [4]byte
	binary.LittleEndian.PutUint32(countBytes[:], w.count)
	if _, err := w.file.Write(countBytes[:]); err != nil {
		w.file.Close()
		return fmt.Errorf("write final count: %w", err)
	}
	return w.file.Close()
}

func writeLenPrefixed(w io.Writer, b []byte) error {
	var lenBytes [4]byte
	binary.LittleEndian.PutUint32(lenBytes[:], uint32(len(b)))
	if _, err := w.Write(lenBytes[:]); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// Entry is one decoded (key, payload) pair read back from an archive.
type Entry struct {
	Key     []byte
	Payload *dynamicpb.Message
}

// Read decodes every entry in path with md, verifying that the leading
// count matches the number of entries actually present in the body. The
// stored descriptor set is decoded but not compared against md.
func Read(path string, md protoreflect.MessageDescriptor) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %q: %w", path, err)
	}
	defer f.Close()

	var countBytes [4]byte
	if _, err := io.ReadFull(f, countBytes[:]); err != nil {
		return nil, fmt.Errorf("read archive count: %w", err)
	}
	wantCount := binary.LittleEndian.Uint32(countBytes[:])

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()

	br := bufio.NewReader(dec)

	descriptorSet, err := readLenPrefixed(br)
	if err != nil {
		return nil, fmt.Errorf("read descriptor set: %w", err)
	}
	set := &descriptorpb.FileDescriptorSet{}
	if err := proto.Unmarshal(descriptorSet, set); err != nil {
		return nil, fmt.Errorf("unmarshal descriptor set: %w", err)
	}

	var entries []Entry
	for {
		key, err := readLenPrefixed(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read entry key: %w", err)
		}
		payload, err := readLenPrefixed(br)
		if err != nil {
			return nil, fmt.Errorf("read entry payload: %w", err)
		}
		msg := dynamicpb.NewMessage(md)
		if err := proto.Unmarshal(payload, msg); err != nil {
			return nil, fmt.Errorf("unmarshal entry payload: %w", err)
		}
		entries = append(entries, Entry{Key: key, Payload: msg})
	}

	if uint32(len(entries)) != wantCount {
		return nil, fmt.Errorf("archive count mismatch: header says %d, body has %d", wantCount, len(entries))
	}
	return entries, nil
}

func readLenPrefixed(r io.Reader) ([]byte, error) {
	var lenBytes [4]byte
	if _, err := io.ReadFull(r, lenBytes[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBytes[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
