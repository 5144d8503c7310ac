// Copyright 2025 Certen Protocol

package schema

import "testing"

func testContractID() Identifier {
	var id Identifier
	id[0] = 0xaa
	return id
}

func buildNoteType(t *testing.T) *DocumentType {
	t.Helper()
	props := map[string]*Property{
		"title": {Name: "title", Type: FieldTypeString, Required: true},
		"body":  {Name: "body", Type: FieldTypeString},
	}
	indexes := []Index{
		{Name: "byTitle", Properties: []string{"title"}, Unique: true},
	}
	dt, err := CompileDocumentType(testContractID(), "note", props, []string{"title"}, indexes, true, false)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return dt
}

func TestCompileDocumentTypeRejectsUnknownIndexProperty(t *testing.T) {
	props := map[string]*Property{"title": {Name: "title", Type: FieldTypeString}}
	indexes := []Index{{Name: "bad", Properties: []string{"missing"}}}
	_, err := CompileDocumentType(testContractID(), "note", props, nil, indexes, true, false)
	if err != ErrUnknownProperty {
		t.Fatalf("expected ErrUnknownProperty, got %v", err)
	}
}

func TestCompileDocumentTypeRejectsSecondContestedIndex(t *testing.T) {
	props := map[string]*Property{
		"a": {Name: "a", Type: FieldTypeString},
		"b": {Name: "b", Type: FieldTypeString},
	}
	indexes := []Index{
		{Name: "i1", Properties: []string{"a"}, Contested: true},
		{Name: "i2", Properties: []string{"b"}, Contested: true},
	}
	_, err := CompileDocumentType(testContractID(), "note", props, nil, indexes, true, false)
	if err != ErrMultipleContestedIndexes {
		t.Fatalf("expected ErrMultipleContestedIndexes, got %v", err)
	}
}

func TestFieldTypeForPropertyResolvesSyntheticFields(t *testing.T) {
	dt := buildNoteType(t)
	ft, err := dt.FieldTypeForProperty("$id")
	if err != nil || ft != FieldTypeIdentifier {
		t.Fatalf("expected $id to resolve to Identifier, got %v err=%v", ft, err)
	}
	ft, err = dt.FieldTypeForProperty("$createdAt")
	if err != nil || ft != FieldTypeDate {
		t.Fatalf("expected $createdAt to resolve to Date, got %v err=%v", ft, err)
	}
}

func TestSerializeIsDeterministicAndOrderStable(t *testing.T) {
	dt := buildNoteType(t)
	doc := &Document{
		ID:           Identifier{1},
		OwnerID:      Identifier{2},
		DocumentType: "note",
		Values: map[string]interface{}{
			"title": "hello",
			"body":  "world",
		},
	}
	first, err := dt.Serialize(doc)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	second, err := dt.Serialize(doc)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if string(first) != string(second) {
		t.Fatal("serialize is not deterministic across calls")
	}
	if len(first) < 64 {
		t.Fatalf("expected at least id+owner_id (64 bytes), got %d", len(first))
	}
}

func TestSerializeRejectsMissingRequiredProperty(t *testing.T) {
	dt := buildNoteType(t)
	doc := &Document{ID: Identifier{1}, OwnerID: Identifier{2}, Values: map[string]interface{}{}}
	if _, err := dt.Serialize(doc); err == nil {
		t.Fatal("expected error for missing required property")
	}
}

func TestCompileDataContractRejectsDuplicateDocumentTypeNames(t *testing.T) {
	dt := buildNoteType(t)
	_, err := CompileDataContract(testContractID(), Identifier{9}, 1, []*DocumentType{dt, dt})
	if err != ErrDuplicateDocumentType {
		t.Fatalf("expected ErrDuplicateDocumentType, got %v", err)
	}
}
