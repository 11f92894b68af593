package storage

import (
	"bufio"
	"os"
	"path"

	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
)

const NamesFilename = "names.idx"

// NameIndex interns street names. The numerical index of a name is its
// position in the name list; segment records carry that index as NameID.
type NameIndex struct {
	names       []string
	nameToIndex map[string]uint32
}

func NewNameIndex() *NameIndex {
	return &NameIndex{
		nameToIndex: map[string]uint32{},
	}
}

// GetOrAdd returns the index of the given name and adds it first when it
// has not been seen yet.
func (i *NameIndex) GetOrAdd(name string) uint32 {
	if nameIndex, ok := i.nameToIndex[name]; ok {
		return nameIndex
	}

	nameIndex := uint32(len(i.names))
	i.names = append(i.names, name)
	i.nameToIndex[name] = nameIndex
	return nameIndex
}

// GetNameFromIndex returns the string representation of the given name
// index and "" if the index doesn't exist.
func (i *NameIndex) GetNameFromIndex(nameIndex uint32) string {
	if int(nameIndex) >= len(i.names) {
		return ""
	}
	return i.names[nameIndex]
}

func (i *NameIndex) Size() int {
	return len(i.names)
}

// Save writes the name list to the given base folder, one name per line.
func (i *NameIndex) Save(baseFolder string) error {
	filename := path.Join(baseFolder, NamesFilename)

	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "Unable to create name index file %s", filename)
	}
	defer func() {
		err = file.Close()
		sigolo.FatalCheck(errors.Wrapf(err, "Unable to close file handle for name index store %s", filename))
	}()

	writer := bufio.NewWriter(file)
	for _, name := range i.names {
		_, err = writer.WriteString(name + "\n")
		if err != nil {
			return errors.Wrapf(err, "Unable to write name to name index file %s", filename)
		}
	}

	return errors.Wrapf(writer.Flush(), "Unable to flush name index file %s", filename)
}

func LoadNameIndex(baseFolder string) (*NameIndex, error) {
	filename := path.Join(baseFolder, NamesFilename)

	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to open name index file %s", filename)
	}
	defer func() {
		err = file.Close()
		sigolo.FatalCheck(errors.Wrapf(err, "Unable to close file handle for name index store %s", filename))
	}()

	nameIndex := NewNameIndex()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		nameIndex.GetOrAdd(scanner.Text())
	}
	if err = scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "Unable to read name index file %s", filename)
	}

	sigolo.Debugf("Loaded %d names from name index file %s", nameIndex.Size(), filename)

	return nameIndex, nil
}
