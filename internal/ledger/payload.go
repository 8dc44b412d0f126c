package ledger

import (
	"bytes"
	"encoding/json"
)

// The upstream nests its payload array and pagination counters under
// resource-dependent field names. Candidates are tried in priority order; the
// final fallback for the payload is "first array-valued field".

// Payload array field candidates per resource type.
var (
	ProjectFields     = []string{"cadastro", "projetos", "projeto_cadastro"}
	MovementFields    = []string{"movimentos", "conta_corrente_lista", "registros"}
	CounterpartFields = []string{"clientes_cadastro", "cadastros", "clientes"}
	CategoryFields    = []string{"categoria_cadastro", "categorias"}
)

// Pagination counter spellings, in priority order.
var totalPagesFields = []string{"nTotPaginas", "total_de_paginas", "nTotalPaginas", "totalPaginas"}

// ExtractItems returns the payload array of a response, trying each
// candidate field name in order and falling back to the first array-valued
// field. A response with no array anywhere yields an empty slice.
func ExtractItems(raw json.RawMessage, candidates []string) []json.RawMessage {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}

	for _, name := range candidates {
		if items, ok := asArray(obj[name]); ok {
			return items
		}
	}
	return firstArrayField(raw)
}

// firstArrayField walks the top-level object in document order and returns
// the first array-valued field it finds.
func firstArrayField(raw json.RawMessage) []json.RawMessage {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}
	for dec.More() {
		if _, err := dec.Token(); err != nil { // field name
			return nil
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil
		}
		if items, ok := asArray(v); ok {
			return items
		}
	}
	return nil
}

// ExtractTotalPages returns the response's total page count, trying each
// known spelling in order and defaulting to 1 when none is present.
func ExtractTotalPages(raw json.RawMessage) int {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return 1
	}
	for _, name := range totalPagesFields {
		v, ok := obj[name]
		if !ok {
			continue
		}
		var n float64
		if err := json.Unmarshal(v, &n); err == nil && n >= 1 {
			return int(n)
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			var f float64
			if err := json.Unmarshal([]byte(s), &f); err == nil && f >= 1 {
				return int(f)
			}
		}
	}
	return 1
}

func asArray(v json.RawMessage) ([]json.RawMessage, bool) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || v[0] != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		return nil, false
	}
	return items, true
}
