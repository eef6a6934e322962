package repository

import (
	"gorm.io/gorm"
)

// idBatchSize bounds the ids bound into one IN list, well under sqlite's
// host parameter limit even with a restriction's own binds added.
const idBatchSize = 500

// inBatches calls fn with consecutive slices of at most idBatchSize ids.
func inBatches(ids []string, fn func(batch []string) error) error {
	for start := 0; start < len(ids); start += idBatchSize {
		if err := fn(ids[start:min(start+idBatchSize, len(ids))]); err != nil {
			return err
		}
	}
	return nil
}

type ownerValue struct {
	Owner string
	Value string
}

// loadJoined reads the values j holds for each owner id, ordered by value.
func loadJoined(db *gorm.DB, j joinColumn, ownerIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return out, nil
	}

	var rows []ownerValue
	err := inBatches(ownerIDs, func(batch []string) error {
		var part []ownerValue
		if err := db.Table(j.table).
			Select(j.key+" AS owner, "+j.value+" AS value").
			Where(j.key+" IN ?", batch).
			Order(j.key + " asc, " + j.value + " asc").
			Scan(&part).Error; err != nil {
			return storeError(db, err, "query "+j.table)
		}
		rows = append(rows, part...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		out[row.Owner] = append(out[row.Owner], row.Value)
	}
	return out, nil
}

// replaceJoined rewrites the values of owner in j.
func replaceJoined(db *gorm.DB, j joinColumn, owner string, values []string) error {
	if err := db.Exec("DELETE FROM "+j.table+" WHERE "+j.key+" = ?", owner).Error; err != nil {
		return storeError(db, err, "clear "+j.table)
	}
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		if err := db.Exec("INSERT INTO "+j.table+" ("+j.key+", "+j.value+") VALUES (?, ?)", owner, v).Error; err != nil {
			return storeError(db, err, "insert "+j.table)
		}
	}
	return nil
}

func idsOf[M any](rows []M, id func(M) string) []string {
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = id(row)
	}
	return out
}
