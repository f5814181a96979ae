// Package common provides shared helpers for the vector-store adapters.
package common

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/zentry-ai/zentry/pkg/types"
)

// IDPayloadKey holds the caller's record ID in backends whose point IDs must
// be UUIDs.
const IDPayloadKey = "zentry_id"

// Initializer runs a setup function until it first succeeds. A failed attempt
// is retried on the next call.
type Initializer struct {
	mu   sync.Mutex
	done bool
}

// Do runs fn unless a previous call succeeded
func (i *Initializer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.done {
		return nil
	}
	if err := fn(ctx); err != nil {
		return err
	}
	i.done = true
	return nil
}

// Invalidate forces the next Do to run setup again
func (i *Initializer) Invalidate() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.done = false
}

// PointID returns id when it is a UUID, otherwise a UUIDv5 derived from it.
func PointID(id string) string {
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed.String()
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
}

// NewID returns a random record ID
func NewID() string {
	return uuid.NewString()
}

// WithID returns a copy of payload carrying id under IDPayloadKey.
func WithID(payload map[string]any, id string) map[string]any {
	out := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		out[k] = v
	}
	out[IDPayloadKey] = id
	return out
}

// SplitID removes IDPayloadKey from payload and returns it, or fallback
// when it is absent.
func SplitID(payload map[string]any, fallback string) (string, map[string]any) {
	id, ok := payload[IDPayloadKey].(string)
	if !ok {
		return fallback, payload
	}
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		if k != IDPayloadKey {
			out[k] = v
		}
	}
	return id, out
}

// MatchesFilters reports whether payload equals every filter entry. Both
// sides are compared in their JSON form, so 1 matches a decoded 1.0 and
// slices or maps compare element-wise.
func MatchesFilters(payload, filters map[string]any) bool {
	for k, v := range filters {
		if !reflect.DeepEqual(jsonValue(payload[k]), jsonValue(v)) {
			return false
		}
	}
	return true
}

// jsonValue returns v as encoding/json would decode it into an any.
func jsonValue(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}

// Score compares two vectors with the named distance metric. Higher is
// always more similar: euclidean distances are negated.
func Score(distance string, a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(-1)
	}
	var dot, na, nb, sq float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
		sq += (x - y) * (x - y)
	}
	switch distance {
	case "euclidean":
		return -math.Sqrt(sq)
	case "dot":
		return dot
	default:
		if na == 0 || nb == 0 {
			return 0
		}
		return dot / (math.Sqrt(na) * math.Sqrt(nb))
	}
}

// SortMatches orders matches by descending score, breaking ties by ID, and
// truncates to limit.
func SortMatches(matches []types.Match, limit int) []types.Match {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Score > matches[j].Score
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// SortedKeys returns the keys of m in sorted order
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IndexedFields are the payload keys stored as first-class filterable fields
// by backends that cannot filter on arbitrary JSON.
var IndexedFields = []string{"user_id", "agent_id", "run_id", "actor_id"}

// Overfetch multiplies the requested limit when some filters are applied to
// returned payloads rather than by the backend.
const Overfetch = 4

// SplitFilters separates filters on IndexedFields, which the backend applies,
// from the rest, which must be applied to the returned payloads.
func SplitFilters(filters map[string]any) (indexed, rest map[string]any) {
	indexed = make(map[string]any)
	rest = make(map[string]any)
	for k, v := range filters {
		if isIndexed(k) {
			indexed[k] = v
		} else {
			rest[k] = v
		}
	}
	return indexed, rest
}

func isIndexed(key string) bool {
	for _, f := range IndexedFields {
		if f == key {
			return true
		}
	}
	return false
}

// IndexedValues returns the string form of every IndexedFields entry in payload.
func IndexedValues(payload map[string]any) map[string]string {
	out := make(map[string]string)
	for _, f := range IndexedFields {
		if v, ok := payload[f]; ok && v != nil {
			out[f] = fmt.Sprint(v)
		}
	}
	return out
}

// EncodeVector packs v as little-endian float32s.
func EncodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector unpacks a vector written by EncodeVector.
func DecodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
