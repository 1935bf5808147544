package ticket

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchemaValidation(t *testing.T) {
	valid := []Field{
		{Key: "name", Kind: KindText, Prompt: "?", BitrixField: "UF_NAME"},
	}

	tests := []struct {
		name   string
		fields []Field
	}{
		{"empty", nil},
		{"no key", []Field{{Kind: KindText, Prompt: "?", BitrixField: "X"}}},
		{"duplicate key", append(append([]Field(nil), valid...), valid[0])},
		{"no prompt", []Field{{Key: "k", Kind: KindText, BitrixField: "X"}}},
		{"no bitrix field", []Field{{Key: "k", Kind: KindText, Prompt: "?"}}},
		{"choice without options", []Field{{Key: "k", Kind: KindChoice, Prompt: "?", BitrixField: "X"}}},
		{"text with options", []Field{{Key: "k", Kind: KindText, Prompt: "?", Choices: []string{"a"}, BitrixField: "X"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchema(tt.fields, nil)
			assert.Error(t, err)
		})
	}

	s, err := NewSchema(valid, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestSchemaTerminators(t *testing.T) {
	s, err := NewSchema([]Field{
		{Key: "k", Kind: KindFileSet, Prompt: "?", BitrixField: "X"},
	}, nil)
	require.NoError(t, err)

	for _, word := range []string{"готово", "ГОТОВО", " Всё ", "все", "Готова"} {
		assert.True(t, s.IsTerminator(word), word)
	}
	assert.False(t, s.IsTerminator("готов"))
	assert.False(t, s.IsTerminator(""))
}

func TestSchemaCustomTerminators(t *testing.T) {
	s, err := NewSchema([]Field{
		{Key: "k", Kind: KindFileSet, Prompt: "?", BitrixField: "X"},
	}, []string{"done", "Finish"})
	require.NoError(t, err)

	assert.True(t, s.IsTerminator("DONE"))
	assert.True(t, s.IsTerminator("finish"))
	assert.False(t, s.IsTerminator("готово"))
}

func TestLoadSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fields.yaml")
	data := `
fields:
  - key: subject
    kind: text
    prompt: "Тема?"
    bitrix_field: UF_SUBJECT
  - key: kind
    kind: choice
    prompt: "Тип?"
    choices: ["Вопрос", "Проблема"]
    bitrix_field: UF_KIND
  - key: attachments
    kind: files
    prompt: "Файлы?"
    bitrix_field: UF_ATTACHMENTS
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	s, err := LoadSchema(path)
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())
	assert.Equal(t, KindText, s.Field(0).Kind)
	assert.Equal(t, KindChoice, s.Field(1).Kind)
	assert.Equal(t, KindFileSet, s.Field(2).Kind)
	assert.Equal(t, []string{"Вопрос", "Проблема"}, s.Field(1).Choices)
	assert.True(t, s.IsTerminator("готово"))
}

func TestLoadSchemaBadKind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fields.yaml")
	data := `
fields:
  - key: subject
    kind: dropdown
    prompt: "?"
    bitrix_field: UF_SUBJECT
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	_, err := LoadSchema(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dropdown")
}

func TestDefaultSchema(t *testing.T) {
	s := DefaultSchema()
	require.NotZero(t, s.Len())
	last := s.Field(s.Len() - 1)
	assert.Equal(t, KindFileSet, last.Kind)
}
