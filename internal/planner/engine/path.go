package engine

import (
	"strconv"
	"strings"
)

const (
	treeSep       = ":"
	pathSep       = "/"
	depthSep      = "@"
	byproductMark = "~"
)

// PathID derives a node's structural identity. An empty parentPath denotes
// the root, which is namespaced by treeID so ids are unique across trees.
func PathID(treeID, parentPath, itemID string, depth int) string {
	if parentPath == "" {
		if treeID == "" {
			return itemID
		}
		return treeID + treeSep + itemID
	}
	return parentPath + pathSep + itemID + depthSep + strconv.Itoa(depth)
}

// ByproductPathID derives the identity of a byproduct leaf emitted under
// the node at parentPath.
func ByproductPathID(parentPath, itemID string, depth int) string {
	return parentPath + pathSep + byproductMark + itemID + depthSep + strconv.Itoa(depth)
}

// TreePrefix returns the prefix shared by every path id in a tree.
func TreePrefix(treeID string) string {
	return treeID + treeSep
}

// InTree reports whether pathID belongs to the tree.
func InTree(treeID, pathID string) bool {
	return strings.HasPrefix(pathID, TreePrefix(treeID))
}

// IsAncestorPath reports whether ancestor is a strict prefix path of pathID.
func IsAncestorPath(ancestor, pathID string) bool {
	return len(pathID) > len(ancestor) && strings.HasPrefix(pathID, ancestor+pathSep)
}
