package repository

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"solar_planner/internal/domain"
)

var ErrCorruptSlot = errors.New("stored project list is corrupt")

// EncodeProjects serializes the list as a JSON array. Missing appliance
// lists are written as [] so that a decoded list encodes to the same bytes.
func EncodeProjects(list []domain.ProjectRecord) ([]byte, error) {
	out := make([]domain.ProjectRecord, len(list))
	for i, r := range list {
		if r.Appliances == nil {
			r.Appliances = []domain.ApplianceEntry{}
		}
		out[i] = r
	}
	return json.Marshal(out)
}

// DecodeProjects parses a stored slot. Empty input is an empty list.
func DecodeProjects(data []byte) ([]domain.ProjectRecord, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []domain.ProjectRecord{}, nil
	}

	var list []domain.ProjectRecord
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSlot, err)
	}
	if list == nil {
		list = []domain.ProjectRecord{}
	}
	return list, nil
}
