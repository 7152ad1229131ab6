package models

// FileTree maps a file path to its node. Mutation is whole-document
// replace-on-write: every save submits the complete snapshot that must
// become canonical.
type FileTree map[string]FileNode

// FileNode is one entry in a file tree. Only plain files are modeled today;
// the indirection through a struct leaves room for other node kinds.
type FileNode struct {
	File *FileBlob `json:"file,omitempty"`
}

// FileBlob holds raw file text.
type FileBlob struct {
	Contents string `json:"contents"`
}

// NewFileNode builds a file node holding the given contents.
func NewFileNode(contents string) FileNode {
	return FileNode{File: &FileBlob{Contents: contents}}
}

// Clone returns a deep copy of the tree. A nil tree clones to an empty one,
// so callers always get a snapshot they may mutate freely.
func (t FileTree) Clone() FileTree {
	out := make(FileTree, len(t))
	for path, node := range t {
		n := FileNode{}
		if node.File != nil {
			blob := *node.File
			n.File = &blob
		}
		out[path] = n
	}
	return out
}
