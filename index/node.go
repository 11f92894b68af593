package index

import "encoding/binary"

// BranchingFactor is the fan-in of interior tree nodes, LeafNodeSize the
// number of segments per leaf page. Both are part of the on-disk format
// contract: an index built with one pair cannot be read with another.
const (
	BranchingFactor = 64
	LeafNodeSize    = 1024
)

/*
	TreeNode format (little endian, 276 bytes):

	Names: | minLat | minLon | maxLat | maxLon | childCount (31 bit) + childIsOnDisk (1 bit) | children |
	Bytes: |   4    |   4    |   4    |   4    |                      4                      |  4 * 64  |

	When childIsOnDisk is set, children[0] holds the index of a leaf page in
	the leaf file and childCount stays 0; the object count lives in the
	leaf page itself. Otherwise the first childCount entries of children
	hold indices into the tree node array.
*/
const treeNodeBytes = 16 + 4 + 4*BranchingFactor

/*
	LeafNode format (little endian, 4 + 48 * 1024 bytes):

	Names: | objectCount | objects  |
	Bytes: |      4      | 48 * 1024 |
*/
const leafNodeBytes = 4 + LeafNodeSize*edgeDataBytes

const childIsOnDiskFlag = uint32(1) << 31

// TreeNode is one node of the memory-resident search tree. Interior nodes
// reference up to BranchingFactor children by tree array index; leaf nodes
// reference exactly one leaf page in the leaf file.
type TreeNode struct {
	MBR           RectangleInt2D
	ChildCount    uint32
	ChildIsOnDisk bool
	Children      [BranchingFactor]uint32
}

// LeafNode is one page of up to LeafNodeSize segment records, stored
// contiguously in the leaf file.
type LeafNode struct {
	ObjectCount uint32
	Objects     [LeafNodeSize]EdgeData
}

func encodeTreeNode(node *TreeNode, data []byte) {
	binary.LittleEndian.PutUint32(data[0:], uint32(node.MBR.MinLat))
	binary.LittleEndian.PutUint32(data[4:], uint32(node.MBR.MinLon))
	binary.LittleEndian.PutUint32(data[8:], uint32(node.MBR.MaxLat))
	binary.LittleEndian.PutUint32(data[12:], uint32(node.MBR.MaxLon))

	packed := node.ChildCount
	if node.ChildIsOnDisk {
		packed |= childIsOnDiskFlag
	}
	binary.LittleEndian.PutUint32(data[16:], packed)

	for i := 0; i < BranchingFactor; i++ {
		binary.LittleEndian.PutUint32(data[20+4*i:], node.Children[i])
	}
}

func decodeTreeNode(data []byte, node *TreeNode) {
	node.MBR.MinLat = int32(binary.LittleEndian.Uint32(data[0:]))
	node.MBR.MinLon = int32(binary.LittleEndian.Uint32(data[4:]))
	node.MBR.MaxLat = int32(binary.LittleEndian.Uint32(data[8:]))
	node.MBR.MaxLon = int32(binary.LittleEndian.Uint32(data[12:]))

	packed := binary.LittleEndian.Uint32(data[16:])
	node.ChildCount = packed &^ childIsOnDiskFlag
	node.ChildIsOnDisk = packed&childIsOnDiskFlag != 0

	for i := 0; i < BranchingFactor; i++ {
		node.Children[i] = binary.LittleEndian.Uint32(data[20+4*i:])
	}
}

func encodeLeafNode(leaf *LeafNode, data []byte) {
	binary.LittleEndian.PutUint32(data[0:], leaf.ObjectCount)
	for i := 0; i < LeafNodeSize; i++ {
		encodeEdgeData(&leaf.Objects[i], data[4+i*edgeDataBytes:])
	}
}

func decodeLeafNode(data []byte, leaf *LeafNode) {
	leaf.ObjectCount = binary.LittleEndian.Uint32(data[0:])
	for i := 0; i < LeafNodeSize; i++ {
		decodeEdgeData(data[4+i*edgeDataBytes:], &leaf.Objects[i])
	}
}
