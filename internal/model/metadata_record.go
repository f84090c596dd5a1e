package model

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"github.com/devrev/timeline/internal/errors"
)

// colorPattern matches a 6-hex-digit color with an optional leading '#'
var colorPattern = regexp.MustCompile(`^#?[0-9a-fA-F]{6}$`)

// MetadataRecord is a record carrying a color tag and an open key/value
// metadata payload. Its JSON representation always emits type "metadata";
// the discriminator is fixed per record kind and not caller-controlled.
type MetadataRecord struct {
	Record
	Color    string                 `json:"color"`
	Metadata map[string]interface{} `json:"metadata"`
}

// NewMetadataRecord creates a metadata record with validated start, color and
// metadata. An empty color is replaced with a random one.
func NewMetadataRecord(scope string, start int64, color string, metadata map[string]interface{}) (*MetadataRecord, error) {
	if err := ValidateStart(start); err != nil {
		return nil, err
	}
	normalized, err := ValidateColor(color)
	if err != nil {
		return nil, err
	}
	if err := ValidateMetadata(metadata); err != nil {
		return nil, err
	}
	return &MetadataRecord{
		Record: Record{
			Scope: scope,
			Start: start,
			Type:  TypeMetadata,
		},
		Color:    normalized,
		Metadata: metadata,
	}, nil
}

// ValidateColor validates and normalizes a hex color. An empty color yields a
// random one. The normalized form has exactly one leading '#'.
func ValidateColor(color string) (string, error) {
	if color == "" {
		return RandomColor(), nil
	}
	if !colorPattern.MatchString(color) {
		return "", errors.InvalidColor(color)
	}
	return "#" + strings.TrimPrefix(color, "#"), nil
}

// ValidateMetadata checks that the metadata payload is a usable mapping.
// Scalars, lists and null are rejected; a decoded non-object payload arrives
// here as a nil map.
func ValidateMetadata(metadata map[string]interface{}) error {
	if metadata == nil {
		return errors.InvalidMetadata("must be a non-null object")
	}
	return nil
}

// RandomColor generates a pseudo-random #RRGGBB color. This is a cosmetic UI
// tag; a non-cryptographic source is sufficient.
func RandomColor() string {
	return fmt.Sprintf("#%06x", rand.Intn(0x1000000))
}

// Namespace returns the store key for this record's sub-collection
func (r *MetadataRecord) Namespace() string {
	return MetadataNamespace(r.Scope)
}

// MarshalJSON forces the fixed "metadata" discriminator regardless of the
// embedded Type value
func (r MetadataRecord) MarshalJSON() ([]byte, error) {
	type plain MetadataRecord
	p := plain(r)
	p.Type = TypeMetadata
	return json.Marshal(p)
}

// AsJSON serializes the record to its wire representation
func (r *MetadataRecord) AsJSON() ([]byte, error) {
	return json.Marshal(r)
}

// MetadataRecordFromJSON deserializes a metadata record from its wire
// representation
func MetadataRecordFromJSON(data []byte) (*MetadataRecord, error) {
	var r MetadataRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.InternalError("failed to unmarshal metadata record", err)
	}
	return &r, nil
}
