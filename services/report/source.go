// Package report reads the shelter's daily foster report and writes the
// enriched report the mentor coordinators actually use.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// the daily report must carry exactly these columns, anything else
// means the shelter changed their export and the numbers cannot be
// trusted
var requiredColumns = []string{
	"Datetime of Current Status Date",
	"Current Animal Type",
	"AnimalID",
	"Animal Name",
	"Age",
	"Foster Parent ID",
}

const animalIDColumn = "AnimalID"

// ReadAnimalIDs loads the daily report export and returns its animal
// ids, deduplicated and sorted. Everything else in the file is stale by
// the time we run, so the ids are all we take from it.
func ReadAnimalIDs(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open daily report: %w", err)
	}
	defer f.Close()
	return readAnimalIDs(f)
}

func readAnimalIDs(r io.Reader) ([]int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("daily report is empty or unreadable: %w", err)
	}
	idColumn, err := validateHeader(header)
	if err != nil {
		return nil, err
	}

	seen := map[int]bool{}
	var ids []int
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read daily report row: %w", err)
		}
		if idColumn >= len(record) {
			continue
		}

		raw := strings.TrimSpace(record[idColumn])
		if raw == "" {
			continue
		}
		id, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("daily report has a non-numeric animal id %q", raw)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("daily report contains no animals")
	}
	sort.Ints(ids)
	return ids, nil
}

func validateHeader(header []string) (idColumn int, err error) {
	present := map[string]int{}
	for i, name := range header {
		present[strings.TrimSpace(name)] = i
	}
	for _, required := range requiredColumns {
		if _, ok := present[required]; !ok {
			return 0, fmt.Errorf(
				"daily report is missing the %q column, the export format has changed", required)
		}
	}
	return present[animalIDColumn], nil
}
