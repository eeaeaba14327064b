package protocol

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
)

// MaxFrameSize bounds a single frame payload. Session snapshots are tiny;
// anything near this limit is a malformed or hostile frame.
const MaxFrameSize = 1 << 20

// WriteFrame encodes v as JSON and writes a length-prefixed frame.
func WriteFrame(w io.Writer, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	if len(payload) > MaxFrameSize {
		return ferrors.ProtocolError("frame exceeds size limit").
			WithContext("size", len(payload)).Build()
	}

	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed frame and unmarshals it into v.
//
// io.EOF is returned unwrapped when the peer closed cleanly before a
// header; any other failure is a protocol error.
func ReadFrame(r io.Reader, v any) error {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return ferrors.WrapError(err, ferrors.CategoryProtocol, "read frame header").Build()
	}

	length := binary.LittleEndian.Uint32(header[:])
	if length == 0 || length > MaxFrameSize {
		return ferrors.ProtocolError("invalid frame length").
			WithContext("length", length).Build()
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryProtocol, "read frame payload").Build()
	}

	if err := json.Unmarshal(payload, v); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryProtocol, "decode frame").Build()
	}
	return nil
}
