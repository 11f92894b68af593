package index

import (
	"bufio"
	"encoding/binary"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"

	"roadsnap/geo"
	"roadsnap/util"
)

type wrappedInputElement struct {
	hilbertValue uint64
	arrayIndex   uint32
}

// Build constructs a packed Hilbert-R-tree over the given segments with the
// Kamel-Faloutsos bulk-loading algorithm. It writes the leaf pages to
// leafNodeFilename and the search tree to treeNodeFilename and returns the
// search tree as it is in memory, with the root at index 0. The builder
// instance-free design means there is nothing to destroy afterwards; query
// handles are created separately via Open or NewFromTreeNodes.
func Build(inputData []EdgeData, coordinates []geo.Coordinate, treeNodeFilename string, leafNodeFilename string) ([]TreeNode, error) {
	elementCount := uint64(len(inputData))
	if elementCount == 0 {
		return nil, errors.Errorf("Unable to build an r-tree from zero segments")
	}

	sigolo.Infof("Constructing r-tree of %d edge elements on top of %d coordinates", elementCount, len(coordinates))
	constructionStartTime := time.Now()

	// Generate the auxiliary vector of Hilbert values of the Mercator
	// projected segment centroids. Disjoint index ranges, safe to fill in
	// parallel.
	inputWrapperVector := make([]wrappedInputElement, elementCount)
	parallelFor(int(elementCount), func(from int, to int) {
		for i := from; i < to; i++ {
			current := &inputData[i]

			centroid := Centroid(coordinates[current.U], coordinates[current.V])
			centroid.Lat = int32(geo.CoordinatePrecision * geo.Lat2y(centroid.FloatLat()))

			inputWrapperVector[i] = wrappedInputElement{
				hilbertValue: hilbertCode(centroid),
				arrayIndex:   uint32(i),
			}
		}
	})

	sort.SliceStable(inputWrapperVector, func(i, j int) bool {
		return inputWrapperVector[i].hilbertValue < inputWrapperVector[j].hilbertValue
	})

	treeNodesInLevel, err := writeLeafNodes(inputData, inputWrapperVector, coordinates, leafNodeFilename)
	if err != nil {
		return nil, err
	}

	// Pack BranchingFactor nodes of the current level under one parent each
	// until a single root remains. Children land in the permanent tree array
	// in visiting order, so the root comes last and every child index is
	// smaller than its parent's.
	var searchTree []TreeNode
	for len(treeNodesInLevel) > 1 {
		var treeNodesInNextLevel []TreeNode

		processedTreeNodesInLevel := 0
		for processedTreeNodesInLevel < len(treeNodesInLevel) {
			parentNode := TreeNode{MBR: NewRectangle()}

			for childIndex := 0; childIndex < BranchingFactor && processedTreeNodesInLevel < len(treeNodesInLevel); childIndex++ {
				childNode := treeNodesInLevel[processedTreeNodesInLevel]

				parentNode.Children[childIndex] = uint32(len(searchTree))
				searchTree = append(searchTree, childNode)

				parentNode.MBR.Merge(childNode.MBR)
				parentNode.ChildCount++
				processedTreeNodesInLevel++
			}
			parentNode.MBR.assertInitialized()

			treeNodesInNextLevel = append(treeNodesInNextLevel, parentNode)
		}

		treeNodesInLevel = treeNodesInNextLevel
	}
	if len(treeNodesInLevel) != 1 {
		util.LogFatalBug("Tree broken, %d root nodes remain after packing", len(treeNodesInLevel))
	}
	searchTree = append(searchTree, treeNodesInLevel[0])

	// Reverse so the root lands at index 0, then renumber all child
	// references. The renumber touches disjoint nodes and runs in parallel.
	reverseTreeNodes(searchTree)
	searchTreeSize := uint32(len(searchTree))
	parallelFor(len(searchTree), func(from int, to int) {
		for i := from; i < to; i++ {
			node := &searchTree[i]
			if node.ChildIsOnDisk {
				continue
			}
			for j := uint32(0); j < node.ChildCount; j++ {
				node.Children[j] = searchTreeSize - node.Children[j] - 1
			}
		}
	})

	err = writeTreeNodes(searchTree, treeNodeFilename)
	if err != nil {
		return nil, err
	}

	constructionDuration := time.Since(constructionStartTime)
	sigolo.Infof("Finished r-tree construction in %s", constructionDuration)

	return searchTree, nil
}

// writeLeafNodes walks the Hilbert-sorted segments in chunks of
// LeafNodeSize, writes each chunk as one leaf page and returns the tree
// nodes referencing the pages, in page order.
func writeLeafNodes(inputData []EdgeData, inputWrapperVector []wrappedInputElement, coordinates []geo.Coordinate, leafNodeFilename string) ([]TreeNode, error) {
	leafNodeFile, err := os.Create(leafNodeFilename)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to create leaf node file %s", leafNodeFilename)
	}
	writer := bufio.NewWriter(leafNodeFile)

	var header [8]byte
	binary.LittleEndian.PutUint64(header[:], uint64(len(inputData)))
	_, err = writer.Write(header[:])
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to write element count to leaf node file %s", leafNodeFilename)
	}

	var treeNodesInLevel []TreeNode
	leafBuffer := make([]byte, leafNodeBytes)

	processedObjectsCount := 0
	for processedObjectsCount < len(inputWrapperVector) {
		currentLeaf := &LeafNode{}
		currentNode := TreeNode{MBR: NewRectangle()}

		for elementIndex := 0; elementIndex < LeafNodeSize && processedObjectsCount+elementIndex < len(inputWrapperVector); elementIndex++ {
			indexOfNextObject := inputWrapperVector[processedObjectsCount+elementIndex].arrayIndex
			object := inputData[indexOfNextObject]

			currentLeaf.Objects[elementIndex] = object
			currentLeaf.ObjectCount++

			currentNode.MBR.ExtendWith(coordinates[object.U])
			currentNode.MBR.ExtendWith(coordinates[object.V])
		}
		currentNode.MBR.assertInitialized()

		currentNode.ChildIsOnDisk = true
		currentNode.Children[0] = uint32(len(treeNodesInLevel))
		treeNodesInLevel = append(treeNodesInLevel, currentNode)

		encodeLeafNode(currentLeaf, leafBuffer)
		_, err = writer.Write(leafBuffer)
		if err != nil {
			return nil, errors.Wrapf(err, "Unable to write leaf node %d to leaf node file %s", len(treeNodesInLevel)-1, leafNodeFilename)
		}

		processedObjectsCount += int(currentLeaf.ObjectCount)
	}

	err = writer.Flush()
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to flush leaf node file %s", leafNodeFilename)
	}
	err = leafNodeFile.Close()
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to close leaf node file %s", leafNodeFilename)
	}

	return treeNodesInLevel, nil
}

func writeTreeNodes(searchTree []TreeNode, treeNodeFilename string) error {
	if len(searchTree) == 0 {
		util.LogFatalBug("Search tree is empty after construction")
	}

	treeNodeFile, err := os.Create(treeNodeFilename)
	if err != nil {
		return errors.Wrapf(err, "Unable to create tree node file %s", treeNodeFilename)
	}
	writer := bufio.NewWriter(treeNodeFile)

	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(searchTree)))
	_, err = writer.Write(header[:])
	if err != nil {
		return errors.Wrapf(err, "Unable to write tree size to tree node file %s", treeNodeFilename)
	}

	nodeBuffer := make([]byte, treeNodeBytes)
	for i := range searchTree {
		encodeTreeNode(&searchTree[i], nodeBuffer)
		_, err = writer.Write(nodeBuffer)
		if err != nil {
			return errors.Wrapf(err, "Unable to write tree node %d to tree node file %s", i, treeNodeFilename)
		}
	}

	err = writer.Flush()
	if err != nil {
		return errors.Wrapf(err, "Unable to flush tree node file %s", treeNodeFilename)
	}
	err = treeNodeFile.Close()
	if err != nil {
		return errors.Wrapf(err, "Unable to close tree node file %s", treeNodeFilename)
	}

	return nil
}

func reverseTreeNodes(nodes []TreeNode) {
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
}

// parallelFor splits [0, n) into one contiguous range per CPU and runs the
// body on each range concurrently.
func parallelFor(n int, body func(from int, to int)) {
	numWorkers := runtime.NumCPU()
	if numWorkers > n {
		numWorkers = n
	}
	if numWorkers <= 1 {
		body(0, n)
		return
	}

	chunkSize := (n + numWorkers - 1) / numWorkers
	var waitGroup sync.WaitGroup
	for from := 0; from < n; from += chunkSize {
		to := from + chunkSize
		if to > n {
			to = n
		}
		waitGroup.Add(1)
		go func(from int, to int) {
			defer waitGroup.Done()
			body(from, to)
		}(from, to)
	}
	waitGroup.Wait()
}
