package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/mkowalski/hypertuner/internal/model"
)

// #region compute

// HexLength is the length of a computed identity string.
const HexLength = 32

// Compute derives a stable fingerprint from a model's structural
// configuration: a canonical, order-stable string form is hashed with
// SHA-256 and truncated to 32 hex characters. Two structurally
// identical specs always produce the same identity regardless of which
// hyperparameter sample led to them.
func Compute(spec *model.Spec) string {
	digest := sha256.Sum256([]byte(Canonical(spec)))
	return hex.EncodeToString(digest[:])[:HexLength]
}

// #endregion compute

// #region canonical

// Canonical renders the spec into its canonical string form. Layer
// order is structural and preserved; per-layer free-form fields are
// sorted by key so map iteration order can never leak into the hash.
func Canonical(spec *model.Spec) string {
	if spec == nil {
		return ""
	}

	parts := []string{
		fmt.Sprintf("name=%s", spec.Name),
		fmt.Sprintf("in=%d", spec.InputUnits),
	}
	for i, l := range spec.Layers {
		parts = append(parts, fmt.Sprintf("l%d=%s/%d/%s", i, l.Kind, l.Units, l.Activation))

		keys := make([]string, 0, len(l.Fields))
		for k := range l.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("l%d.%s=%g", i, k, l.Fields[k]))
		}
	}
	return strings.Join(parts, "|")
}

// #endregion canonical
