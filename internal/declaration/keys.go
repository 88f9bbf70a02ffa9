package declaration

import (
	"errors"
	"fmt"
	"strings"
)

// Key identifies one of the mandatory confirmations.
type Key string

const (
	KeyAccuracy          Key = "accuracy"
	KeyCompleteness      Key = "completeness"
	KeyPenalties         Key = "penalties"
	KeyRecordKeeping     Key = "record_keeping"
	KeyCalculationReview Key = "calculation_review"
	KeyFinalDeclaration  Key = "final_declaration"
)

// ErrUnknownKey is returned for a confirmation key outside the fixed set.
var ErrUnknownKey = errors.New("unknown declaration key")

var orderedKeys = []Key{
	KeyAccuracy,
	KeyCompleteness,
	KeyPenalties,
	KeyRecordKeeping,
	KeyCalculationReview,
	KeyFinalDeclaration,
}

// Wording is fixed. Changing it changes what the taxpayer legally declared,
// so any edit needs a new declaration version.
var wording = map[Key]string{
	KeyAccuracy:          "The information I have provided in this return is correct to the best of my knowledge and belief.",
	KeyCompleteness:      "I have included all self-employment income and allowable expenses for this tax year.",
	KeyPenalties:         "I understand that I may have to pay financial penalties and face prosecution if I give false information.",
	KeyRecordKeeping:     "I have kept the records needed to support this return and will keep them for at least five years after the filing deadline.",
	KeyCalculationReview: "I have reviewed the tax calculation shown and understand the amount I am declaring.",
	KeyFinalDeclaration:  "I declare that the information and self-assessment I have filed are (taking into account any supporting information) correct and complete to the best of my knowledge and belief.",
}

// Keys returns the confirmation keys in the order they are presented.
func Keys() []Key {
	keys := make([]Key, len(orderedKeys))
	copy(keys, orderedKeys)
	return keys
}

// Count is the number of confirmations a complete declaration carries.
func Count() int {
	return len(orderedKeys)
}

// Valid reports whether k is one of the fixed keys.
func (k Key) Valid() bool {
	_, ok := wording[k]
	return ok
}

// Text returns the fixed wording shown to the taxpayer for k.
func (k Key) Text() string {
	return wording[k]
}

func (k Key) String() string {
	return string(k)
}

// Text returns the wording for key, or ErrUnknownKey.
func Text(key Key) (string, error) {
	text, ok := wording[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return text, nil
}

// ParseKey converts user input such as "record-keeping" or "RECORD_KEEPING" to a Key.
func ParseKey(s string) (Key, error) {
	k := Key(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, s)
	}
	return k, nil
}
