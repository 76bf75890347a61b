package header

import (
	"encoding/csv"
	"encoding/hex"
	"errors"
	"math/big"
	"os"
	"strconv"

	"github.com/flyclient-go/superlight/bloomfilter"
	"github.com/flyclient-go/superlight/mmr"
)

// ErrMalformedRow is returned when a CSV row does not match the
// number,hash,difficulty contract.
var ErrMalformedRow = errors.New("header: malformed CSV row")

// CSVCache reads and writes the header-cache CSV contract: columns
// number (u64 decimal), hash (0x-hex 32 bytes), difficulty (u128 decimal).
// A bloom filter over seen block numbers lets ContinueNonInteractiveProof
// requests get an O(1) negative "not cached" answer without a file scan; a
// positive answer still confirms against the file.
type CSVCache struct {
	path   string
	filter *bloomfilter.Filter
}

// OpenCSVCache opens (creating if absent) the CSV file at path and
// rebuilds the bloom filter by scanning existing rows once.
func OpenCSVCache(path string, expectedRows uint64) (*CSVCache, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	filter, err := bloomfilter.New(expectedRows, 10, 7)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = 3
	for {
		row, err := r.Read()
		if err != nil {
			break
		}
		n, err := strconv.ParseUint(row[0], 10, 64)
		if err != nil {
			continue
		}
		filter.Add(n)
	}

	return &CSVCache{path: path, filter: filter}, nil
}

// Has reports whether number is already cached. A false result is
// authoritative; a true result must be confirmed against the file.
func (c *CSVCache) Has(number uint64) (bool, error) {
	if !c.filter.MayContain(number) {
		return false, nil
	}
	rows, err := c.ReadAll()
	if err != nil {
		return false, err
	}
	for _, rec := range rows {
		if rec.Number == number {
			return true, nil
		}
	}
	return false, nil
}

// Get looks up a single cached record by block number, used by the light
// client to resolve numbers the prover reported as omitted (already synced
// in an earlier round).
func (c *CSVCache) Get(number uint64) (Record, bool, error) {
	if !c.filter.MayContain(number) {
		return Record{}, false, nil
	}
	rows, err := c.ReadAll()
	if err != nil {
		return Record{}, false, err
	}
	for _, rec := range rows {
		if rec.Number == number {
			return rec, true, nil
		}
	}
	return Record{}, false, nil
}

// Append writes one row and updates the bloom filter.
func (c *CSVCache) Append(rec Record) error {
	f, err := os.OpenFile(c.path, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	row := []string{
		strconv.FormatUint(rec.Number, 10),
		"0x" + hex.EncodeToString(rec.Hash[:]),
		rec.Difficulty.Big().String(),
	}
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	c.filter.Add(rec.Number)
	return nil
}

// ReadAll parses every row in the cache.
func (c *CSVCache) ReadAll() ([]Record, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 3
	var out []Record
	for {
		row, err := r.Read()
		if err != nil {
			break
		}
		rec, err := parseRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseRow(row []string) (Record, error) {
	if len(row) != 3 {
		return Record{}, ErrMalformedRow
	}
	number, err := strconv.ParseUint(row[0], 10, 64)
	if err != nil {
		return Record{}, ErrMalformedRow
	}
	hexStr := row[1]
	if len(hexStr) >= 2 && hexStr[:2] == "0x" {
		hexStr = hexStr[2:]
	}
	hashBytes, err := hex.DecodeString(hexStr)
	if err != nil || len(hashBytes) != mmr.HashSize {
		return Record{}, ErrMalformedRow
	}
	var h mmr.Hash
	copy(h[:], hashBytes)

	diffInt, ok := new(big.Int).SetString(row[2], 10)
	if !ok {
		return Record{}, ErrMalformedRow
	}
	diff, err := mmr.DifficultyFromBig(diffInt)
	if err != nil {
		return Record{}, ErrMalformedRow
	}

	return Record{Number: number, Hash: h, Difficulty: diff}, nil
}
