package epdq

import (
	"crypto/sha512"
	"encoding/hex"
	"sort"
	"strings"
)

const signatureField = "SHASIGN"

type Param struct {
	Name  string
	Value string
}

// Sign returns the upper-case hex SHA-512 digest of NAME=VALUE<passphrase>
// for every param, in the order given.
func Sign(params []Param, passphrase string) string {
	var b strings.Builder
	for _, p := range params {
		b.WriteString(p.Name)
		b.WriteByte('=')
		b.WriteString(p.Value)
		b.WriteString(passphrase)
	}
	sum := sha512.Sum512([]byte(b.String()))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// Verify recomputes the signature over params, which must already be in
// signing order, and compares it case-insensitively.
func Verify(params []Param, passphrase, signature string) bool {
	if signature == "" {
		return false
	}
	return strings.EqualFold(Sign(params, passphrase), strings.TrimSpace(signature))
}

// normalise upper-cases names, drops empty values and the signature field,
// and sorts alphabetically.
func normalise(params []Param) []Param {
	out := make([]Param, 0, len(params))
	for _, p := range params {
		name := strings.ToUpper(strings.TrimSpace(p.Name))
		if p.Value == "" || name == signatureField {
			continue
		}
		out = append(out, Param{Name: name, Value: p.Value})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
