package index

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"

	"roadsnap/geo"
)

// StaticRTree is the serving handle over the two build artifacts: the
// memory-resident search tree and the leaf file opened for random reads.
// It is strictly read-only and may be shared across goroutines without
// synchronization; leaf reads use ReadAt, which does not touch a shared
// file offset.
type StaticRTree struct {
	searchTree   []TreeNode
	coordinates  []geo.Coordinate
	elementCount uint64
	leafFile     *os.File
	leafCache    *leafCache
}

// Open loads the search tree from treeNodeFilename into memory and opens
// leafNodeFilename for random leaf page reads. Missing or empty artifacts
// are fatal for the caller and reported as errors.
func Open(treeNodeFilename string, leafNodeFilename string, coordinates []geo.Coordinate) (*StaticRTree, error) {
	treeNodeFileInfo, err := os.Stat(treeNodeFilename)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errors.Errorf("Tree node file %s does not exist", treeNodeFilename)
	} else if err != nil {
		return nil, errors.Wrapf(err, "Unable to get existance status of tree node file %s", treeNodeFilename)
	}
	if treeNodeFileInfo.Size() == 0 {
		return nil, errors.Errorf("Tree node file %s is empty", treeNodeFilename)
	}

	treeNodeFile, err := os.Open(treeNodeFilename)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to open tree node file %s", treeNodeFilename)
	}
	defer func() {
		closeErr := treeNodeFile.Close()
		sigolo.FatalCheck(errors.Wrapf(closeErr, "Unable to close tree node file %s", treeNodeFilename))
	}()

	reader := bufio.NewReader(treeNodeFile)

	var header [4]byte
	_, err = io.ReadFull(reader, header[:])
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to read tree size from tree node file %s", treeNodeFilename)
	}
	treeSize := binary.LittleEndian.Uint32(header[:])

	searchTree := make([]TreeNode, treeSize)
	nodeBuffer := make([]byte, treeNodeBytes)
	for i := uint32(0); i < treeSize; i++ {
		_, err = io.ReadFull(reader, nodeBuffer)
		if err != nil {
			return nil, errors.Wrapf(err, "Unable to read tree node %d from tree node file %s", i, treeNodeFilename)
		}
		decodeTreeNode(nodeBuffer, &searchTree[i])
	}

	sigolo.Debugf("Loaded %d nodes from tree node file %s", treeSize, treeNodeFilename)

	return NewFromTreeNodes(searchTree, leafNodeFilename, coordinates)
}

// NewFromTreeNodes creates a handle over an already resident search tree,
// e.g. one that was just built or one borrowed from a shared memory region.
// The handle takes ownership of the leaf file it opens, but not of the
// tree slice.
func NewFromTreeNodes(searchTree []TreeNode, leafNodeFilename string, coordinates []geo.Coordinate) (*StaticRTree, error) {
	leafNodeFileInfo, err := os.Stat(leafNodeFilename)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errors.Errorf("Leaf node file %s does not exist", leafNodeFilename)
	} else if err != nil {
		return nil, errors.Wrapf(err, "Unable to get existance status of leaf node file %s", leafNodeFilename)
	}
	if leafNodeFileInfo.Size() == 0 {
		return nil, errors.Errorf("Leaf node file %s is empty", leafNodeFilename)
	}

	leafFile, err := os.Open(leafNodeFilename)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to open leaf node file %s", leafNodeFilename)
	}

	var header [8]byte
	_, err = io.ReadFull(leafFile, header[:])
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to read element count from leaf node file %s", leafNodeFilename)
	}
	elementCount := binary.LittleEndian.Uint64(header[:])

	cache, err := newLeafCache()
	if err != nil {
		return nil, err
	}

	sigolo.Debugf("Opened leaf node file %s with %d elements", leafNodeFilename, elementCount)

	return &StaticRTree{
		searchTree:   searchTree,
		coordinates:  coordinates,
		elementCount: elementCount,
		leafFile:     leafFile,
		leafCache:    cache,
	}, nil
}

// ElementCount returns the number of segments in the leaf file.
func (t *StaticRTree) ElementCount() uint64 {
	return t.elementCount
}

func (t *StaticRTree) Close() error {
	t.leafCache.close()
	err := t.leafFile.Close()
	return errors.Wrapf(err, "Unable to close leaf node file %s", t.leafFile.Name())
}

// loadLeafFromDisk reads the leaf page with the given index. A read error
// is logged and returned; it aborts the current query but leaves the
// handle usable for subsequent ones.
func (t *StaticRTree) loadLeafFromDisk(leafID uint32) (*LeafNode, error) {
	if leaf, ok := t.leafCache.get(leafID); ok {
		return leaf, nil
	}

	buffer := make([]byte, leafNodeBytes)
	offset := int64(8) + int64(leafID)*int64(leafNodeBytes)
	_, err := t.leafFile.ReadAt(buffer, offset)
	if err != nil {
		sigolo.Errorf("Unable to read leaf node %d at offset %d: %+v", leafID, offset, err)
		return nil, errors.Wrapf(err, "Unable to read leaf node %d from leaf node file", leafID)
	}

	leaf := &LeafNode{}
	decodeLeafNode(buffer, leaf)
	t.leafCache.set(leafID, leaf)

	return leaf, nil
}
