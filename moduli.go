package batchgcd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ncw/gmp"
)

const (
	moduliBase   = 10 // Decimal
	moduliFields = 3
	idField      = 0
	modulusField = 2
)

// Record is one parsed input record: a key ID and its RSA modulus.
// Input lines carry further columns; they are not interpreted here.
type Record struct {
	ID      int
	Modulus *gmp.Int
}

// ReadRecords parses the moduli file at path: one CSV record per line,
// field 0 the integer key ID, field 2 the decimal modulus. IDs must be
// unique; they are the only handle the final report gives back.
// Repeated modulus values are accepted; identical moduli are a real
// compromise and both copies get flagged downstream.
func ReadRecords(path string) ([]Record, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening moduli file: %w", err)
	}
	defer fp.Close()

	var records []Record
	seen := make(map[int]struct{})
	one := gmp.NewInt(1)

	scanner := bufio.NewScanner(fp)
	// A 4096-bit modulus is over 1200 decimal digits; the default
	// scanner limit is plenty, but lines also carry arbitrary extra
	// columns.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lineNumber int
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < moduliFields {
			return nil, fmt.Errorf("%w: %s:%d: %d fields, want at least %d",
				ErrParse, path, lineNumber, len(fields), moduliFields)
		}
		id, err := strconv.Atoi(fields[idField])
		if err != nil {
			return nil, fmt.Errorf("%w: %s:%d: bad ID %q", ErrParse, path, lineNumber, fields[idField])
		}
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("%w: %s:%d: duplicate ID %d", ErrParse, path, lineNumber, id)
		}
		seen[id] = struct{}{}

		m := new(gmp.Int)
		if _, ok := m.SetString(fields[modulusField], moduliBase); !ok {
			return nil, fmt.Errorf("%w: %s:%d: bad modulus %q", ErrParse, path, lineNumber, fields[modulusField])
		}
		if m.Cmp(one) <= 0 {
			return nil, fmt.Errorf("%w: %s:%d: modulus must be greater than 1", ErrParse, path, lineNumber)
		}
		records = append(records, Record{ID: id, Modulus: m})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading moduli file: %w", err)
	}
	return records, nil
}
