package source

import (
	"fmt"
	"iter"
	"os"
	"strings"

	"howett.net/plist"
)

// safariNode mirrors the relevant subset of Safari's Bookmarks.plist
// schema: WebBookmarkTypeList (folder) or WebBookmarkTypeLeaf (bookmark).
type safariNode struct {
	WebBookmarkType string       `plist:"WebBookmarkType"`
	Title           string       `plist:"Title"`
	URLString       string       `plist:"URLString"`
	URIDictionary   *safariURIs  `plist:"URIDictionary"`
	Children        []safariNode `plist:"Children"`
}

type safariURIs struct {
	Title string `plist:"title"`
}

// SafariReader reads macOS Safari's Bookmarks.plist export.
type SafariReader struct{}

func (r *SafariReader) CanRead(path string) bool {
	if !strings.HasSuffix(path, ".plist") {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var root safariNode
	err = plist.Unmarshal(data, &root)
	return err == nil
}

func (r *SafariReader) Read(path string, folderFilter []string) (iter.Seq[Bookmark], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceNotFound, path, err)
	}

	var root safariNode
	if err := plist.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadFormat, path, err)
	}

	desc := Descriptor{Kind: "safari", Path: path, Folders: folderFilter}

	return func(yield func(Bookmark) bool) {
		walkSafariNode(root, "", desc, folderFilter, yield)
	}, nil
}

func (n safariNode) title() string {
	if n.URIDictionary != nil && n.URIDictionary.Title != "" {
		return n.URIDictionary.Title
	}
	return n.Title
}

func walkSafariNode(node safariNode, folder string, desc Descriptor, filter []string, yield func(Bookmark) bool) bool {
	switch node.WebBookmarkType {
	case "WebBookmarkTypeLeaf":
		if !matchesFolder(folder, filter) {
			return true
		}
		if strings.TrimSpace(node.URLString) == "" {
			return true
		}
		return yield(Bookmark{URL: node.URLString, Title: node.title(), Folder: folder, Source: desc})
	default: // "WebBookmarkTypeList" or the implicit root
		childFolder := folder
		if node.Title != "" {
			childFolder = joinFolder(folder, node.Title)
		}
		for _, child := range node.Children {
			if !walkSafariNode(child, childFolder, desc, filter, yield) {
				return false
			}
		}
		return true
	}
}
