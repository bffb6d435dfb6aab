// Package data reads test fixtures from JSON, CSV, and Excel files. It
// only reads; test data is authored elsewhere and treated as immutable
// input to a run.
package data

import (
	"encoding/csv"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/xuri/excelize/v2"
)

// JSONDocument is a parsed JSON fixture queried by dotted key path, e.g.
// "users.0.username".
type JSONDocument struct {
	path string
	body []byte
}

// OpenJSON loads and validates a JSON fixture.
func OpenJSON(path string) (*JSONDocument, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading json fixture %s", path)
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.Errorf("malformed json fixture %s", path)
	}
	return &JSONDocument{path: path, body: body}, nil
}

// Value returns the string at keyPath, erroring when the path is absent.
func (d *JSONDocument) Value(keyPath string) (string, error) {
	res := gjson.GetBytes(d.body, keyPath)
	if !res.Exists() {
		return "", errors.Errorf("key %q not found in %s", keyPath, d.path)
	}
	return res.String(), nil
}

// Result returns the raw gjson result at keyPath for callers that need
// arrays or typed access.
func (d *JSONDocument) Result(keyPath string) gjson.Result {
	return gjson.GetBytes(d.body, keyPath)
}

// JSONValue is the one-shot form of OpenJSON + Value.
func JSONValue(path, keyPath string) (string, error) {
	doc, err := OpenJSON(path)
	if err != nil {
		return "", err
	}
	return doc.Value(keyPath)
}

// CSVRows returns every record of a CSV fixture, header row included.
func CSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening csv fixture %s", path)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "parsing csv fixture %s", path)
	}
	return rows, nil
}

// CSVInto unmarshals a CSV fixture into a slice of structs tagged with
// `csv:"column"`.
func CSVInto(path string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "opening csv fixture %s", path)
	}
	defer f.Close()
	if err := gocsv.UnmarshalFile(f, out); err != nil {
		return errors.Wrapf(err, "unmarshalling csv fixture %s", path)
	}
	return nil
}

// ExcelRows returns every row of a worksheet as strings.
func ExcelRows(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening excel fixture %s", path)
	}
	defer f.Close()
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "reading sheet %q of %s", sheet, path)
	}
	return rows, nil
}

// ExcelCell returns a single cell, addressed like "B2".
func ExcelCell(path, sheet, cell string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "opening excel fixture %s", path)
	}
	defer f.Close()
	value, err := f.GetCellValue(sheet, cell)
	if err != nil {
		return "", errors.Wrapf(err, "reading cell %s!%s of %s", sheet, cell, path)
	}
	return value, nil
}
