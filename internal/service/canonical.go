package service

import (
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"github.com/akarpov/go-alertsync/models"
	"golang.org/x/crypto/blake2b"
)

// canonicalForm renders any JSON-expressible value into a deterministic
// string: object keys are sorted, array elements are sorted by their own
// canonical encoding (comparison is order-independent for arrays), and
// scalars are normalized through a JSON round-trip so that e.g. int(3) and
// float64(3) compare equal.
func canonicalForm(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		// Non-serializable values cannot come from a payload; fall back
		// to an opaque marker so comparison still terminates.
		return "!unserializable"
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "!unserializable"
	}

	var b strings.Builder
	encodeCanonical(&b, generic)
	return b.String()
}

func encodeCanonical(b *strings.Builder, v any) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(k)
			b.WriteByte(':')
			encodeCanonical(b, t[k])
		}
		b.WriteByte('}')

	case []any:
		parts := make([]string, 0, len(t))
		for _, el := range t {
			var eb strings.Builder
			encodeCanonical(&eb, el)
			parts = append(parts, eb.String())
		}
		sort.Strings(parts)

		b.WriteByte('[')
		b.WriteString(strings.Join(parts, ","))
		b.WriteByte(']')

	default:
		raw, _ := json.Marshal(t)
		b.Write(raw)
	}
}

// valuesEqual reports deep equality of two field values under canonical
// comparison.
func valuesEqual(a, b any) bool {
	return canonicalForm(a) == canonicalForm(b)
}

// recordsEqual reports whether two records carry the same field set with
// equal values. The Updated timestamp is deliberately ignored: a remote
// record that only re-announces an unchanged state is not a divergence.
func recordsEqual(a, b models.Record) bool {
	return canonicalForm(a.Fields) == canonicalForm(b.Fields)
}

// fingerprint returns a short stable digest of any value's canonical form,
// used for memo keys and log correlation.
func fingerprint(v any) string {
	sum := blake2b.Sum256([]byte(canonicalForm(v)))
	return hex.EncodeToString(sum[:8])
}
