package atlas

import "encoding/json"

// Classification is a tag applied to a catalog entity.
type Classification struct {
	TypeName string `json:"typeName"`
}

// Entity is the catalog's entity envelope: typed attributes, relationship
// references, classification tags, and audit fields.
type Entity struct {
	GUID                   string                     `json:"guid"`
	TypeName               string                     `json:"typeName"`
	Attributes             map[string]any             `json:"attributes"`
	RelationshipAttributes map[string]json.RawMessage `json:"relationshipAttributes"`
	Classifications        []Classification           `json:"classifications"`
	CreateTime             int64                      `json:"createTime"`
	UpdateTime             int64                      `json:"updateTime"`
	CreatedBy              string                     `json:"createdBy"`
	UpdatedBy              string                     `json:"updatedBy"`
}

// EntityResponse wraps a single-entity fetch together with the raw payload
// for full-fidelity snapshot storage.
type EntityResponse struct {
	Entity *Entity         `json:"entity"`
	Raw    json.RawMessage `json:"-"`
}

// SearchResult is the response of a DSL type search.
type SearchResult struct {
	Entities []Entity `json:"entities"`
}

// Glossary is a catalog glossary with its term headers.
type Glossary struct {
	Name  string         `json:"name"`
	Terms []GlossaryTerm `json:"terms"`
}

// GlossaryTerm is a term header inside a glossary.
type GlossaryTerm struct {
	TermGUID    string `json:"termGuid"`
	DisplayText string `json:"displayText"`
}

// relatedRef is the minimal shape of a relationship attribute entry.
type relatedRef struct {
	GUID        string `json:"guid"`
	DisplayText string `json:"displayText"`
}

// StringAttr returns a string attribute, or "" if absent or non-string.
func (e *Entity) StringAttr(name string) string {
	if v, ok := e.Attributes[name].(string); ok {
		return v
	}
	return ""
}

// BoolAttr returns a boolean attribute, or false if absent.
func (e *Entity) BoolAttr(name string) bool {
	if v, ok := e.Attributes[name].(bool); ok {
		return v
	}
	return false
}

// IntAttr returns a numeric attribute as int, or nil if absent.
func (e *Entity) IntAttr(name string) *int {
	if v, ok := e.Attributes[name].(float64); ok {
		n := int(v)
		return &n
	}
	return nil
}

// AttrRefGUID extracts the guid of an object-valued attribute such as the
// "db" or "table" parent reference.
func (e *Entity) AttrRefGUID(name string) string {
	if m, ok := e.Attributes[name].(map[string]any); ok {
		if g, ok := m["guid"].(string); ok {
			return g
		}
	}
	return ""
}

// RelatedGUIDs extracts the guids referenced by a list-valued relationship
// attribute such as "tables" or "columns".
func (e *Entity) RelatedGUIDs(name string) []string {
	raw, ok := e.RelationshipAttributes[name]
	if !ok {
		return nil
	}
	var refs []relatedRef
	if err := json.Unmarshal(raw, &refs); err != nil {
		return nil
	}
	guids := make([]string, 0, len(refs))
	for _, r := range refs {
		if r.GUID != "" {
			guids = append(guids, r.GUID)
		}
	}
	return guids
}

// RelatedGUID extracts the guid of a single-valued relationship attribute
// such as the parent "db" or "table". Catalogs may serialize these as an
// object or a one-element list.
func (e *Entity) RelatedGUID(name string) string {
	raw, ok := e.RelationshipAttributes[name]
	if !ok {
		return ""
	}
	var ref relatedRef
	if err := json.Unmarshal(raw, &ref); err == nil && ref.GUID != "" {
		return ref.GUID
	}
	var refs []relatedRef
	if err := json.Unmarshal(raw, &refs); err == nil && len(refs) > 0 {
		return refs[0].GUID
	}
	return ""
}

// RelatedDisplayText extracts the display text of a single-valued
// relationship attribute such as the parent "db" or "table". Catalogs may
// serialize these as an object or a one-element list.
func (e *Entity) RelatedDisplayText(name string) string {
	raw, ok := e.RelationshipAttributes[name]
	if !ok {
		return ""
	}
	var ref relatedRef
	if err := json.Unmarshal(raw, &ref); err == nil && ref.DisplayText != "" {
		return ref.DisplayText
	}
	var refs []relatedRef
	if err := json.Unmarshal(raw, &refs); err == nil && len(refs) > 0 {
		return refs[0].DisplayText
	}
	return ""
}

// ClassificationNames returns the entity's classification tags as strings.
func (e *Entity) ClassificationNames() []string {
	if len(e.Classifications) == 0 {
		return nil
	}
	names := make([]string, 0, len(e.Classifications))
	for _, c := range e.Classifications {
		names = append(names, c.TypeName)
	}
	return names
}
