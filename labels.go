package geodetect

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Labels is the immutable table of class names a Model was trained with,
// indexed by class id
type Labels struct {
	names []string
}

// NewLabels returns a label table holding a copy of names
func NewLabels(names []string) Labels {
	return Labels{names: append([]string(nil), names...)}
}

// LoadLabels reads the labels used to train the Model from the given text file.
// It should contain one label per line.
func LoadLabels(file string) (Labels, error) {

	// open the file
	f, err := os.Open(file)

	if err != nil {
		return Labels{}, errors.Wrap(err, "error opening file")
	}

	defer f.Close()

	scanner := bufio.NewScanner(f)

	var names []string

	// read and trim each line
	for scanner.Scan() {
		names = append(names, strings.TrimSpace(scanner.Text()))
	}

	if err := scanner.Err(); err != nil {
		return Labels{}, errors.Wrap(err, "error reading file")
	}

	return Labels{names: names}, nil
}

// For returns the name of class, an id outside the table is returned as its
// number
func (l Labels) For(class int) string {

	if class < 0 || class >= len(l.names) {
		return strconv.Itoa(class)
	}

	return l.names[class]
}

// Len returns the number of classes
func (l Labels) Len() int {
	return len(l.names)
}

// Map returns the table keyed by class id
func (l Labels) Map() map[int]string {

	m := make(map[int]string, len(l.names))

	for i, n := range l.names {
		m[i] = n
	}

	return m
}
