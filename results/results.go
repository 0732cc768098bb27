// Package results stores frequent subset counts as text, one subset per line:
//
//	<length>, <count>, <item1>, <item2>, ...
//
// e.g. {(1,2): 3, (1,2,3): 2} is written as
//
//	2, 3, 1, 2
//	3, 2, 1, 2, 3
package results

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"basket/itemset"
	"basket/transactions"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const separator = ", "

var ErrMalformedRecord = errors.New("malformed result record")

// SortedKeys orders keys by length, then by descending count, then by items.
func SortedKeys(res itemset.Frequencies) []itemset.Key {
	keys := res.Keys()
	sort.SliceStable(keys, func(i, j int) bool {
		if keys[i].Len() != keys[j].Len() {
			return keys[i].Len() < keys[j].Len()
		}
		return res[keys[i]] > res[keys[j]]
	})
	return keys
}

func formatRecord(k itemset.Key, count int) string {
	items := k.Items()
	fields := make([]string, 0, len(items)+2)
	fields = append(fields, strconv.Itoa(len(items)), strconv.Itoa(count))
	for _, item := range items {
		fields = append(fields, strconv.FormatInt(int64(item), 10))
	}
	return strings.Join(fields, separator)
}

// Write writes one record per subset of res.
func Write(w io.Writer, res itemset.Frequencies) error {
	bw := bufio.NewWriter(w)
	for _, k := range SortedKeys(res) {
		if _, err := bw.WriteString(formatRecord(k, res[k]) + "\n"); err != nil {
			return errors.Wrapf(err, "failed writing record %s", k)
		}
	}
	return errors.Wrap(bw.Flush(), "failed flushing results")
}

// WriteFile creates or truncates the file at path and writes res to it.
func WriteFile(path string, res itemset.Frequencies) error {
	log.WithFields(log.Fields{"file": path, "subsets": len(res)}).Info("Writing results to file.")
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create results file %s", path)
	}
	if err := Write(f, res); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "failed to close results file %s", path)
}

// Encode returns res serialised for upload through a file manager.
func Encode(res itemset.Frequencies) (io.ReadSeeker, error) {
	var buf bytes.Buffer
	if err := Write(&buf, res); err != nil {
		return nil, err
	}
	return bytes.NewReader(buf.Bytes()), nil
}

func parseRecord(line string) (itemset.Key, int, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 2 {
		return "", 0, ErrMalformedRecord
	}
	nums := make([]int64, len(fields))
	for i, field := range fields {
		n, err := strconv.ParseInt(strings.TrimSpace(field), 10, 64)
		if err != nil {
			return "", 0, errors.Wrapf(ErrMalformedRecord, "field %q", field)
		}
		nums[i] = n
	}
	length, count := nums[0], nums[1]
	if int(length) != len(nums)-2 {
		return "", 0, errors.Wrapf(ErrMalformedRecord, "length %d but %d items", length, len(nums)-2)
	}
	items := make([]itemset.Item, 0, length)
	for _, n := range nums[2:] {
		items = append(items, itemset.Item(n))
	}
	return itemset.NewKey(items...), int(count), nil
}

// Read parses records written by Write. Blank lines are ignored. Records are
// limited to transactions.MaxLineBytes.
func Read(r io.Reader) (itemset.Frequencies, error) {
	scanner := transactions.CreateScannerFromReader(r)
	res := make(itemset.Frequencies)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		k, count, err := parseRecord(line)
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("line %d", lineNum))
		}
		res[k] = count
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed reading results")
	}
	return res, nil
}

// ReadFile parses the results file at path.
func ReadFile(path string) (itemset.Frequencies, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open results file %s", path)
	}
	defer f.Close()
	return Read(f)
}
