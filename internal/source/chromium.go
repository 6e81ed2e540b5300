package source

import (
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
)

// ChromiumReader reads the Chromium/Chrome/Edge/Brave "Bookmarks" JSON
// export: a tree under "roots.<bookmark_bar|other|synced>" of nodes with
// "type" ("folder" | "url"), "name", "url" and "children".
type ChromiumReader struct{}

func (r *ChromiumReader) CanRead(path string) bool {
	base := filepath.Base(path)
	if base != "Bookmarks" {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return gjson.ValidBytes(data) && gjson.GetBytes(data, "roots").Exists()
}

func (r *ChromiumReader) Read(path string, folderFilter []string) (iter.Seq[Bookmark], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceNotFound, path, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: %s: invalid JSON", ErrBadFormat, path)
	}
	roots := gjson.GetBytes(data, "roots")
	if !roots.Exists() {
		return nil, fmt.Errorf("%w: %s: missing roots", ErrBadFormat, path)
	}

	desc := Descriptor{Kind: "chromium", Path: path, Folders: folderFilter}

	return func(yield func(Bookmark) bool) {
		roots.ForEach(func(rootName, node gjson.Result) bool {
			name := node.Get("name").String()
			if name == "" {
				name = rootName.String()
			}
			return walkChromiumNode(node, name, desc, folderFilter, yield)
		})
	}, nil
}

func walkChromiumNode(node gjson.Result, folder string, desc Descriptor, filter []string, yield func(Bookmark) bool) bool {
	typ := node.Get("type").String()
	switch typ {
	case "url":
		if !matchesFolder(folder, filter) {
			return true
		}
		bm := Bookmark{
			URL:    node.Get("url").String(),
			Title:  node.Get("name").String(),
			Folder: folder,
			Source: desc,
		}
		if strings.TrimSpace(bm.URL) == "" {
			return true
		}
		return yield(bm)
	case "folder", "":
		cont := true
		node.Get("children").ForEach(func(_, child gjson.Result) bool {
			childName := child.Get("name").String()
			cont = walkChromiumNode(child, joinFolder(folder, childName), desc, filter, yield)
			return cont
		})
		return cont
	default:
		return true
	}
}
