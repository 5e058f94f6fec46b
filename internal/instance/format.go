// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package instance

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Returned when a value does not match the shape of its statement.
var ErrMalformed = errors.New("malformed value")

// A single `name = value;` statement.
type Statement struct {
	Name  string
	Value string
}

// Split the input into statements.
//
// Statements end with a semicolon, newlines are insignificant. Empty
// statements are skipped.
func Statements(r io.Reader) ([]Statement, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var statements []Statement
	for raw := range strings.SplitSeq(string(data), ";") {
		raw = strings.TrimSpace(strings.NewReplacer("\r", "", "\n", "").Replace(raw))
		if raw == "" {
			continue
		}
		name, value, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, fmt.Errorf("statement %q has no assignment: %w", raw, ErrMalformed)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("statement %q has no name: %w", raw, ErrMalformed)
		}
		statements = append(statements, Statement{Name: name, Value: strings.TrimSpace(value)})
	}
	return statements, nil
}

// Parse an integer value like `12`.
func ParseInt(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("expected an integer, got %q: %w", value, ErrMalformed)
	}
	return n, nil
}

// Parse a number value like `17.5`.
func ParseFloat(value string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("expected a number, got %q: %w", value, ErrMalformed)
	}
	return f, nil
}

// Parse a list value like `[1,2,3]`.
func ParseList(value string) ([]float64, error) {
	inner, err := unwrap(value, "[", "]")
	if err != nil {
		return nil, err
	}
	return parseNumbers(inner)
}

// Parse a matrix value like `[[1,2][3,4]]`. Rows may also be
// separated by `],[`.
func ParseMatrix(value string) ([][]float64, error) {
	inner, err := unwrap(compact(value), "[[", "]]")
	if err != nil {
		return nil, err
	}
	inner = strings.ReplaceAll(inner, "],[", "][")
	var rows [][]float64
	for row := range strings.SplitSeq(inner, "][") {
		numbers, err := parseNumbers(row)
		if err != nil {
			return nil, err
		}
		rows = append(rows, numbers)
	}
	return rows, nil
}

// Parse a list of vectors like `[<1,2,3>,<4,5,6>]`. Vectors may
// differ in length. An empty list `[]` has no vectors.
func ParseVectors(value string) ([][]float64, error) {
	inner, err := unwrap(compact(value), "[", "]")
	if err != nil {
		return nil, err
	}
	if inner == "" {
		return nil, nil
	}
	inner, err = unwrap(inner, "<", ">")
	if err != nil {
		return nil, err
	}
	var vectors [][]float64
	for vector := range strings.SplitSeq(inner, ">,<") {
		numbers, err := parseNumbers(vector)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, numbers)
	}
	return vectors, nil
}

// Remove all whitespace.
func compact(value string) string {
	return strings.Join(strings.Fields(value), "")
}

func unwrap(value, prefix, suffix string) (string, error) {
	value = strings.TrimSpace(value)
	if len(value) < len(prefix)+len(suffix) ||
		!strings.HasPrefix(value, prefix) || !strings.HasSuffix(value, suffix) {
		return "", fmt.Errorf("expected %q to be enclosed in %s%s: %w", value, prefix, suffix, ErrMalformed)
	}
	return value[len(prefix) : len(value)-len(suffix)], nil
}

// Parse comma separated numbers. An empty string has no numbers.
func parseNumbers(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return []float64{}, nil
	}
	var numbers []float64
	for field := range strings.SplitSeq(s, ",") {
		f, err := ParseFloat(field)
		if err != nil {
			return nil, err
		}
		numbers = append(numbers, f)
	}
	return numbers, nil
}
