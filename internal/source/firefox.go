package source

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"iter"
	"os"
	"strings"

	lz4 "github.com/pierrec/lz4/v3"
	"github.com/tidwall/gjson"
)

// mozLz4Magic is the 8-byte header Firefox prefixes its bookmarkbackups
// .jsonlz4 files with, followed by a little-endian uint32 uncompressed
// size and a raw (unframed) LZ4 block.
var mozLz4Magic = []byte("mozLz40\x00")

// FirefoxReader reads Mozilla Firefox bookmarkbackups/*.jsonlz4 exports:
// an mozLz40-framed LZ4 block containing a Places JSON tree of nodes with
// "type" ("text/x-moz-place-container" | "text/x-moz-place"), "title",
// "uri" and "children".
type FirefoxReader struct{}

func (r *FirefoxReader) CanRead(path string) bool {
	if !strings.HasSuffix(path, ".jsonlz4") && !strings.HasSuffix(path, ".json") {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	header := make([]byte, len(mozLz4Magic))
	if n, _ := f.Read(header); n == len(mozLz4Magic) && bytes.Equal(header, mozLz4Magic) {
		return true
	}
	// Plain (uncompressed) Places JSON export.
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return gjson.ValidBytes(data) && gjson.GetBytes(data, "guid").Exists()
}

func (r *FirefoxReader) Read(path string, folderFilter []string) (iter.Seq[Bookmark], error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceNotFound, path, err)
	}

	data, err := decodeMozLz4(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadFormat, path, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: %s: invalid JSON", ErrBadFormat, path)
	}

	root := gjson.ParseBytes(data)
	desc := Descriptor{Kind: "firefox", Path: path, Folders: folderFilter}

	return func(yield func(Bookmark) bool) {
		walkFirefoxNode(root, "", desc, folderFilter, yield)
	}, nil
}

// decodeMozLz4 strips the mozLz40 header and inflates the LZ4 block. Data
// without the magic header is returned unchanged (plain JSON export).
func decodeMozLz4(raw []byte) ([]byte, error) {
	if len(raw) < len(mozLz4Magic)+4 || !bytes.Equal(raw[:len(mozLz4Magic)], mozLz4Magic) {
		return raw, nil
	}
	body := raw[len(mozLz4Magic):]
	size := binary.LittleEndian.Uint32(body[:4])
	compressed := body[4:]

	dst := make([]byte, size)
	n, err := lz4.UncompressBlock(compressed, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	return dst[:n], nil
}

func walkFirefoxNode(node gjson.Result, folder string, desc Descriptor, filter []string, yield func(Bookmark) bool) bool {
	typ := node.Get("type").String()
	title := node.Get("title").String()

	switch typ {
	case "text/x-moz-place":
		if !matchesFolder(folder, filter) {
			return true
		}
		uri := node.Get("uri").String()
		if strings.TrimSpace(uri) == "" || strings.HasPrefix(uri, "place:") {
			return true
		}
		return yield(Bookmark{URL: uri, Title: title, Folder: folder, Source: desc})
	case "text/x-moz-place-container", "":
		childFolder := folder
		if title != "" {
			childFolder = joinFolder(folder, title)
		}
		cont := true
		node.Get("children").ForEach(func(_, child gjson.Result) bool {
			cont = walkFirefoxNode(child, childFolder, desc, filter, yield)
			return cont
		})
		return cont
	default:
		return true
	}
}
