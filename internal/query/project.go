package query

import "encoding/json"

// ProjectRecords trims serialized records to the selected JSON fields plus id.
// Without a selection the records are returned unchanged.
func (q *Query) ProjectRecords(records any) (any, error) {
	if len(q.Fields) == 0 {
		return records, nil
	}

	raw, err := json.Marshal(records)
	if err != nil {
		return nil, err
	}
	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}

	keep := map[string]bool{"id": true}
	for _, f := range q.Fields {
		keep[f.Name] = true
	}
	for _, row := range rows {
		for key := range row {
			if !keep[key] {
				delete(row, key)
			}
		}
	}
	return rows, nil
}
