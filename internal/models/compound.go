// Package models defines the domain types for chemid.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// CID is a PubChem compound identifier in string form. It decodes from
// either a JSON number or a JSON string.
type CID string

// UnmarshalJSON accepts 2244 as well as "2244".
func (c *CID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = CID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("models: cid: %w", err)
	}
	*c = CID(n.String())
	return nil
}

// Compound is the response of a by-name compound lookup. The first entry is
// the compound itself, the remaining entries are its parent chain.
type Compound struct {
	Entries []CompoundEntry `json:"PC_Compounds"`
}

// CompoundEntry is one structural record with its property list.
type CompoundEntry struct {
	ID    *OuterID   `json:"id,omitempty"`
	Props []Property `json:"props,omitempty"`
}

// OuterID wraps the nested identifier object PubChem emits.
type OuterID struct {
	ID *InnerID `json:"id,omitempty"`
}

// InnerID carries the numeric compound identifier.
type InnerID struct {
	CID int64 `json:"cid"`
}

// CID returns the entry's identifier, if any.
func (e CompoundEntry) CID() (int64, bool) {
	if e.ID == nil || e.ID.ID == nil {
		return 0, false
	}
	return e.ID.ID.CID, true
}

// Property is a classified value attached to a compound entry.
type Property struct {
	URN   *URN   `json:"urn,omitempty"`
	Value *Value `json:"value,omitempty"`
}

// URN classifies a property by label and name-type.
type URN struct {
	Label    string `json:"label,omitempty"`
	Name     string `json:"name,omitempty"`
	Datatype int    `json:"datatype,omitempty"`
	Release  string `json:"release,omitempty"`
}

// Value holds one of the typed property payloads.
type Value struct {
	IVal *int64   `json:"ival,omitempty"`
	FVal *float64 `json:"fval,omitempty"`
	SVal *string  `json:"sval,omitempty"`
}

// Description is one entry of a description/title batch response.
type Description struct {
	CID                   CID     `json:"CID"`
	Title                 *string `json:"Title,omitempty"`
	Description           *string `json:"Description,omitempty"`
	DescriptionSourceName *string `json:"DescriptionSourceName,omitempty"`
	DescriptionURL        *string `json:"DescriptionURL,omitempty"`
}

// HasTitle reports whether the record carries a title.
func (d Description) HasTitle() bool {
	return d.Title != nil
}

// Synonyms lists the synonyms PubChem knows for a compound, in upstream order.
type Synonyms struct {
	CID      CID      `json:"CID"`
	Synonyms []string `json:"Synonym"`
}

// Identity is a resolved compound: its identifier, the selected canonical
// name (empty when no candidate qualified) and its resolved parent.
type Identity struct {
	CID    string    `json:"cid"`
	Name   string    `json:"name,omitempty"`
	Parent *Identity `json:"parent,omitempty"`
}

// Chain returns the identity followed by its ancestors.
func (i *Identity) Chain() []*Identity {
	var out []*Identity
	for cur := i; cur != nil; cur = cur.Parent {
		out = append(out, cur)
	}
	return out
}

// Depth is the number of identities in the chain starting at i.
func (i *Identity) Depth() int {
	return len(i.Chain())
}

func (i *Identity) String() string {
	if i == nil {
		return "<none>"
	}
	parts := make([]string, 0, 2)
	for _, id := range i.Chain() {
		parts = append(parts, fmt.Sprintf("%s(%s)", id.CID, id.Name))
	}
	return strings.Join(parts, " -> ")
}

// ParseCID converts a string identifier to its numeric form.
func ParseCID(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("models: invalid cid %q: %w", s, err)
	}
	return n, nil
}

// FormatCID renders a numeric identifier in its string form.
func FormatCID(cid int64) string {
	return strconv.FormatInt(cid, 10)
}
