package transactions

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"basket/itemset"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// 10 MB per line.
const MaxLineBytes = 10 * 1024 * 1024

var loaderLog = log.WithField("prefix", "transactions#Load")

func CreateScannerFromReader(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, MaxLineBytes)
	scanner.Buffer(buf, MaxLineBytes)
	return scanner
}

// Load reads one transaction per line, items separated by whitespace.
// Tokens that are not non negative integers are skipped.
func Load(r io.Reader) ([]itemset.Transaction, error) {
	scanner := CreateScannerFromReader(r)
	txs := make([]itemset.Transaction, 0)
	lineNum := 0
	skipped := 0
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		tx := make(itemset.Transaction, 0, len(fields))
		for _, field := range fields {
			item, err := strconv.ParseUint(field, 10, 63)
			if err != nil {
				skipped++
				loaderLog.WithFields(log.Fields{"line": lineNum, "token": field}).Debug("Skipping non item token.")
				continue
			}
			tx = append(tx, itemset.Item(item))
		}
		txs = append(txs, tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed reading transactions after line %d", lineNum)
	}
	if skipped > 0 {
		loaderLog.WithField("skipped", skipped).Warn("Skipped tokens that are not item ids.")
	}
	return txs, nil
}

// LoadFile reads transactions from the file at path.
func LoadFile(path string) ([]itemset.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open transactions file %s", path)
	}
	defer f.Close()

	txs, err := Load(f)
	if err != nil {
		return nil, err
	}
	loaderLog.WithFields(log.Fields{"file": path, "transactions": len(txs)}).Info("Loaded transactions.")
	return txs, nil
}

// Encode renders txs in the format read by Load.
func Encode(w io.Writer, txs []itemset.Transaction) error {
	bw := bufio.NewWriter(w)
	for _, tx := range txs {
		parts := make([]string, len(tx))
		for i, item := range tx {
			parts[i] = strconv.FormatInt(int64(item), 10)
		}
		if _, err := bw.WriteString(strings.Join(parts, " ") + "\n"); err != nil {
			return errors.Wrap(err, "failed writing transactions")
		}
	}
	return errors.Wrap(bw.Flush(), "failed writing transactions")
}
