package ffdb

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
)

// Stream is the minimal Read/Seek surface the text and waveform codecs
// need, satisfied by both *tiledb.VFSfh (local disk or object store,
// transparently) and *bytes.Reader for small in-memory buffers —
// exactly the teacher's Stream interface in reader.go, reused
// unchanged because a byte-addressable seekable cursor is the same
// requirement whether the bytes are a GSF ping or a CSS 3.0 line.
type Stream interface {
	io.Reader
	io.Seeker
}

// genericStream chooses between streaming straight off stream and
// buffering size bytes into memory first, the way the teacher's
// GenericStream does for GSF pings — small static tables are worth
// buffering once; multi-gigabyte waveform segment files are not.
func genericStream(stream *tiledb.VFSfh, size uint64, inMemory bool) (Stream, error) {
	if !inMemory {
		return stream, nil
	}
	buf := make([]byte, size)
	if err := binary.Read(stream, binary.BigEndian, &buf); err != nil {
		return nil, err
	}
	return bytes.NewReader(buf), nil
}

// vfsHandle wraps a tiledb VFS connection to one URI, open for
// reading or writing, mirroring the teacher's GsfFile field layout
// (config/ctx/vfs/handler) but generalized to any record or waveform
// file under param_root/seg_root rather than one fixed GSF file.
type vfsHandle struct {
	uri     string
	config  *tiledb.Config
	ctx     *tiledb.Context
	vfs     *tiledb.VFS
	handler *tiledb.VFSfh
	Stream
}

func openVFS(uri string, mode tiledb.VFSMode, inMemory bool) (*vfsHandle, error) {
	config, err := tiledb.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenRead, err)
	}
	ctx, err := tiledb.NewContext(config)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenRead, err)
	}
	vfs, err := tiledb.NewVFS(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenRead, err)
	}
	handler, err := vfs.Open(uri, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpenRead, uri, err)
	}

	h := &vfsHandle{uri: uri, config: config, ctx: ctx, vfs: vfs, handler: handler}

	if mode == tiledb.TILEDB_VFS_READ {
		size, err := vfs.FileSize(uri)
		if err != nil {
			h.Close()
			return nil, fmt.Errorf("%w: %s: %v", ErrStatFile, uri, err)
		}
		stream, err := genericStream(handler, size, inMemory)
		if err != nil {
			h.Close()
			return nil, err
		}
		h.Stream = stream
	} else {
		h.Stream = handler
	}
	return h, nil
}

func (h *vfsHandle) Close() {
	if h.handler != nil {
		h.handler.Close()
	}
	if h.vfs != nil {
		h.vfs.Free()
	}
	if h.ctx != nil {
		h.ctx.Free()
	}
	if h.config != nil {
		h.config.Free()
	}
}

// plainStream embeds Stream directly (not io.Reader) so Seek, not just
// Read, promotes to callers that type-assert for it — ResolveWfdisc
// needs to Seek to a wfdisc row's foff before reading its samples.
type plainStream struct {
	Stream
}

// openReader opens uri read-only, transparently wrapping it in a
// gzip reader when the path ends in .gz — spec.md §4.H / §6's
// "a .gz suffix transparently enables gzip streaming". The returned
// reader additionally implements io.Seeker when uri is not gzipped;
// gzip streams are read-forward only.
func openReader(uri string, inMemory bool) (io.Reader, func(), error) {
	h, err := openVFS(uri, tiledb.TILEDB_VFS_READ, inMemory)
	if err != nil {
		return nil, nil, err
	}
	if !strings.HasSuffix(uri, ".gz") {
		return plainStream{h.Stream}, h.Close, nil
	}
	gz, err := gzip.NewReader(h.Stream)
	if err != nil {
		h.Close()
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrOpenRead, uri, err)
	}
	return gz, h.Close, nil
}

// openWriter opens uri for writing (append semantics handled by the
// caller re-reading and rewriting the whole file, since tiledb's VFS
// write mode is append-only by construction — matching the
// store's own append-only insert contract).
func openWriter(uri string) (*vfsHandle, error) {
	return openVFS(uri, tiledb.TILEDB_VFS_WRITE, false)
}
