// Package demand reads trip requests from comma separated files.
//
// Each line holds exactly seven fields and there is no header:
//
//	id, callTime, requestTime, originLink, originOffset, destLink, destOffset
package demand

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kilianp07/drt/core/model"
)

// ErrMalformedRecord is returned for any line that cannot be parsed. Loading
// stops at the first malformed line.
var ErrMalformedRecord = errors.New("malformed request record")

const fieldCount = 7

// Record is one parsed request line.
type Record struct {
	ID          string
	CallTime    int64
	RequestTime int64
	Origin      model.Location
	Destination model.Location
}

// Request builds the unallocated request described by the record.
func (r Record) Request() *model.Request {
	return model.NewRequest(r.ID, r.CallTime, r.RequestTime, r.Origin, r.Destination)
}

// Read parses every record of r. Nothing is returned when a line is
// malformed.
func Read(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	var out []Record
	seen := make(map[string]bool)
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
		}
		line, _ := cr.FieldPos(0)
		rec, err := parse(fields)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRecord, line, err)
		}
		if seen[rec.ID] {
			return nil, fmt.Errorf("%w: line %d: duplicate id %q", ErrMalformedRecord, line, rec.ID)
		}
		seen[rec.ID] = true
		out = append(out, rec)
	}
	return out, nil
}

// ReadFile opens path and parses it with Read.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Read(f)
}

func parse(fields []string) (Record, error) {
	if len(fields) != fieldCount {
		return Record{}, fmt.Errorf("expected %d fields, got %d", fieldCount, len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	var (
		rec Record
		err error
	)
	rec.ID = fields[0]
	if rec.ID == "" {
		return rec, errors.New("empty id")
	}
	if rec.CallTime, err = strconv.ParseInt(fields[1], 10, 64); err != nil {
		return rec, fmt.Errorf("call time: %w", err)
	}
	if rec.RequestTime, err = strconv.ParseInt(fields[2], 10, 64); err != nil {
		return rec, fmt.Errorf("request time: %w", err)
	}
	if rec.Origin, err = location(fields[3], fields[4]); err != nil {
		return rec, fmt.Errorf("origin: %w", err)
	}
	if rec.Destination, err = location(fields[5], fields[6]); err != nil {
		return rec, fmt.Errorf("destination: %w", err)
	}
	return rec, nil
}

func location(link, offset string) (model.Location, error) {
	if link == "" {
		return model.Location{}, errors.New("empty link")
	}
	off, err := strconv.ParseFloat(offset, 64)
	if err != nil {
		return model.Location{}, err
	}
	return model.Location{Link: link, Offset: off}, nil
}
