// Package records normalizes externally shaped records into the canonical
// models. Exports from earlier dashboard revisions name fields differently
// (_id or id, featureId or feature) and realtime snapshots key children by
// generated push ids; all of that is resolved here so nothing downstream has
// to guess field names.
package records

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/testboard/engine/internal/models"
)

// namespace seeds deterministic ids for keys that are not UUIDs, so that
// re-importing the same snapshot updates rows instead of duplicating them.
var namespace = uuid.MustParse("6f1c3c1e-4d0b-4b8e-9a53-0d6c1a2f7e10")

// Raw is a single decoded external record.
type Raw map[string]any

// str returns the first non-empty value among keys, rendered as a string.
func (r Raw) str(keys ...string) string {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch tv := v.(type) {
		case string:
			s = tv
		case json.Number:
			s = tv.String()
		case float64:
			s = strconv.FormatFloat(tv, 'f', -1, 64)
		case bool:
			s = strconv.FormatBool(tv)
		default:
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func (r Raw) time(keys ...string) time.Time {
	s := r.str(keys...)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	return time.Time{}
}

// StorageID maps an external key to a storage id. UUID keys are kept; other
// keys (document ids, push ids) map to a stable name-based UUID. An empty key
// yields uuid.Nil.
func StorageID(key string) uuid.UUID {
	key = strings.TrimSpace(key)
	if key == "" {
		return uuid.Nil
	}
	if id, err := uuid.Parse(key); err == nil {
		return id
	}
	return uuid.NewSHA1(namespace, []byte(key))
}

// canonical maps a value onto one of the allowed spellings, ignoring case.
// Unknown values are returned trimmed but otherwise untouched so validation
// can reject them.
func canonical(v string, allowed []string) string {
	v = strings.TrimSpace(v)
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return a
		}
	}
	return v
}

// Project normalizes a project record. key is the collection key the record
// was stored under, if any.
func Project(r Raw, key string) models.Project {
	return models.Project{
		ID:          StorageID(firstNonEmpty(r.str("_id", "id"), key)),
		Name:        r.str("name"),
		Description: r.str("description"),
		Requirement: r.str("requirement"),
		Icon:        r.str("icon"),
		CreatedAt:   r.time("createdAt", "created_at"),
	}
}

// Feature normalizes a feature record. Stored test counts are ignored; they
// are always derived.
func Feature(r Raw, key string) models.Feature {
	f := models.Feature{
		ID:          StorageID(firstNonEmpty(r.str("_id", "id"), key)),
		Name:        r.str("name"),
		Description: r.str("description"),
		Icon:        r.str("icon"),
		CreatedAt:   r.time("createdAt", "created_at"),
	}
	if pid := StorageID(r.str("project_id", "projectId", "project")); pid != uuid.Nil {
		f.ProjectID = &pid
	}
	return f
}

// TestCase normalizes a test case record. In realtime snapshots "id" holds
// the business identifier and the storage key is the child key; REST records
// carry "_id" plus "test_case_id".
func TestCase(r Raw, key string) models.TestCase {
	storage := r.str("_id", "firebaseId")
	business := r.str("test_case_id", "testCaseId")
	if business == "" {
		business = r.str("id")
	} else if storage == "" {
		storage = r.str("id")
	}
	return models.TestCase{
		ID:          StorageID(firstNonEmpty(storage, key)),
		CaseID:      business,
		Description: r.str("description"),
		FeatureID:   StorageID(r.str("feature_id", "featureId", "feature")),
		Priority:    canonical(r.str("priority"), models.Priorities),
		Status:      canonical(r.str("status"), models.Statuses),
		CreatedAt:   r.time("createdAt", "created_at"),
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Keyed is a record paired with the collection key it was found under.
type Keyed struct {
	Key string
	Raw Raw
}

// DecodeCollection accepts either a JSON array of records or an object whose
// values are records keyed by id (a realtime snapshot). Object keys are
// visited in document order.
func DecodeCollection(data json.RawMessage) ([]Keyed, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()

	switch trimmed[0] {
	case '[':
		var list []Raw
		if err := dec.Decode(&list); err != nil {
			return nil, fmt.Errorf("decode record list: %w", err)
		}
		out := make([]Keyed, 0, len(list))
		for _, r := range list {
			if r != nil {
				out = append(out, Keyed{Raw: r})
			}
		}
		return out, nil
	case '{':
		return decodeKeyed(dec)
	default:
		return nil, fmt.Errorf("collection must be an array or an object")
	}
}

func decodeKeyed(dec *json.Decoder) ([]Keyed, error) {
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode keyed records: %w", err)
	}
	var out []Keyed
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode keyed records: %w", err)
		}
		key, _ := tok.(string)
		var r Raw
		if err := dec.Decode(&r); err != nil {
			return nil, fmt.Errorf("decode record %q: %w", key, err)
		}
		if r != nil {
			out = append(out, Keyed{Key: key, Raw: r})
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode keyed records: %w", err)
	}
	return out, nil
}

// Batch holds normalized records from one import.
type Batch struct {
	Projects  []models.Project
	Features  []models.Feature
	TestCases []models.TestCase
}

// Len is the total number of records in the batch.
func (b Batch) Len() int { return len(b.Projects) + len(b.Features) + len(b.TestCases) }

// DecodeBatch reads an envelope of the form
// {"projects": ..., "features": ..., "testCases": ...}; each collection may
// be an array or a keyed object.
func DecodeBatch(data []byte) (Batch, error) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(data, &env); err != nil {
		return Batch{}, fmt.Errorf("decode import envelope: %w", err)
	}
	var b Batch
	for name, raw := range env {
		items, err := DecodeCollection(raw)
		if err != nil {
			return Batch{}, fmt.Errorf("%s: %w", name, err)
		}
		switch strings.ToLower(strings.ReplaceAll(name, "_", "")) {
		case "projects":
			for _, it := range items {
				b.Projects = append(b.Projects, Project(it.Raw, it.Key))
			}
		case "features":
			for _, it := range items {
				b.Features = append(b.Features, Feature(it.Raw, it.Key))
			}
		case "testcases":
			b.TestCases = append(b.TestCases, TestCases(items)...)
		default:
			return Batch{}, fmt.Errorf("unknown collection %q", name)
		}
	}
	return b, nil
}

// TestCases normalizes a decoded collection of test case records.
func TestCases(items []Keyed) []models.TestCase {
	out := make([]models.TestCase, 0, len(items))
	for _, it := range items {
		out = append(out, TestCase(it.Raw, it.Key))
	}
	return out
}
