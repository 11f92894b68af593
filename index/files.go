package index

// Default artifact names inside an index base folder.
const (
	TreeNodesFilename = "rtree.nodes"
	LeafNodesFilename = "rtree.leaves"
)
