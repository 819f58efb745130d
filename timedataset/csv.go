package timedataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNoHeader       = errors.New("no header row")
	ErrNoDateColumn   = errors.New("unable to locate date column")
	ErrNoPriceColumn  = errors.New("unable to locate price column")
	ErrNoRows         = errors.New("no data rows")
	ErrUnparsableRow  = errors.New("unable to parse row")
	ErrUnmappedColumn = errors.New("configured column not present in header")
)

// CSVOptions configures loading of a (date, closing price) table. Price column
// headers vary across vendors ("Close", "Close/Last", "Adj Close"); when
// PriceColumn is unset the loader normalizes against the known variants.
type CSVOptions struct {
	DateColumn  string
	PriceColumn string
	DateFormat  string
	Comma       rune
}

func NewDefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		DateFormat: "1/2/2006",
		Comma:      ',',
	}
}

var priceHeaderVariants = []string{"close/last", "close", "adj close", "adj. close", "price", "last"}

var dateHeaderVariants = []string{"date", "ds", "timestamp", "month"}

// LoadCSV reads a tabular (date, closing price) file into a TimeDataset. Rows
// are sorted chronologically before validation, so an unsorted file loads
// cleanly while duplicate dates remain an error.
func LoadCSV(r io.Reader, opt *CSVOptions) (*TimeDataset, error) {
	if opt == nil {
		opt = NewDefaultCSVOptions()
	}
	if opt.DateFormat == "" {
		opt.DateFormat = "1/2/2006"
	}

	reader := csv.NewReader(r)
	if opt.Comma != 0 {
		reader.Comma = opt.Comma
	}
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("unable to read header, %w", ErrNoHeader)
	}

	dateIdx, priceIdx, err := locateColumns(header, opt)
	if err != nil {
		return nil, err
	}

	type row struct {
		t time.Time
		y float64
	}
	var rows []row
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d, %w", line+1, ErrUnparsableRow)
		}
		line++
		if dateIdx >= len(record) || priceIdx >= len(record) {
			return nil, fmt.Errorf("line %d has %d fields, %w", line, len(record), ErrUnparsableRow)
		}

		t, err := time.Parse(opt.DateFormat, strings.TrimSpace(record[dateIdx]))
		if err != nil {
			return nil, fmt.Errorf("line %d date %q, %w", line, record[dateIdx], ErrUnparsableRow)
		}
		y, err := parsePrice(record[priceIdx])
		if err != nil {
			return nil, fmt.Errorf("line %d price %q, %w", line, record[priceIdx], ErrUnparsableRow)
		}
		rows = append(rows, row{t: t, y: y})
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].t.Before(rows[j].t) })

	t := make([]time.Time, 0, len(rows))
	y := make([]float64, 0, len(rows))
	for _, r := range rows {
		t = append(t, r.t)
		y = append(y, r.y)
	}
	return New(t, y)
}

// LoadCSVFile is a convenience wrapper around LoadCSV for a file path.
func LoadCSVFile(path string, opt *CSVOptions) (*TimeDataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadCSV(f, opt)
}

func locateColumns(header []string, opt *CSVOptions) (dateIdx, priceIdx int, err error) {
	dateIdx, priceIdx = -1, -1
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.Trim(h, "\"")))
		if opt.DateColumn != "" {
			if h == strings.ToLower(opt.DateColumn) {
				dateIdx = i
			}
		} else if dateIdx == -1 && matchesAny(h, dateHeaderVariants) {
			dateIdx = i
		}
		if opt.PriceColumn != "" {
			if h == strings.ToLower(opt.PriceColumn) {
				priceIdx = i
			}
		} else if priceIdx == -1 && matchesAny(h, priceHeaderVariants) {
			priceIdx = i
		}
	}
	if dateIdx == -1 {
		if opt.DateColumn != "" {
			return 0, 0, fmt.Errorf("date column %q, %w", opt.DateColumn, ErrUnmappedColumn)
		}
		return 0, 0, ErrNoDateColumn
	}
	if priceIdx == -1 {
		if opt.PriceColumn != "" {
			return 0, 0, fmt.Errorf("price column %q, %w", opt.PriceColumn, ErrUnmappedColumn)
		}
		return 0, 0, ErrNoPriceColumn
	}
	return dateIdx, priceIdx, nil
}

func matchesAny(h string, variants []string) bool {
	for _, v := range variants {
		if h == v {
			return true
		}
	}
	return false
}

func parsePrice(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	return strconv.ParseFloat(s, 64)
}
