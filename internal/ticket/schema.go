package ticket

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind enumerates the supported field kinds.
type Kind int

const (
	// KindText collects a single free-form text answer.
	KindText Kind = iota
	// KindChoice collects one answer out of a fixed option list.
	KindChoice
	// KindFileSet collects zero or more file attachments until a terminator word.
	KindFileSet
)

// String returns the YAML/wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindChoice:
		return "choice"
	case KindFileSet:
		return "files"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// UnmarshalYAML parses a kind from its string name.
func (k *Kind) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "text":
		*k = KindText
	case "choice":
		*k = KindChoice
	case "files":
		*k = KindFileSet
	default:
		return fmt.Errorf("unknown field kind %q; allowed: text, choice, files", raw)
	}
	return nil
}

// Field describes one question of the ticket collection sequence.
type Field struct {
	Key         string   `yaml:"key"`
	Kind        Kind     `yaml:"kind"`
	Prompt      string   `yaml:"prompt"`
	Choices     []string `yaml:"choices"`
	BitrixField string   `yaml:"bitrix_field"`
}

// defaultTerminators are the words that end a files field, lowercase.
// The list is a union of historically used synonyms.
var defaultTerminators = []string{"готово", "всё", "все", "готова"}

// Schema is the immutable ordered list of fields the bot walks through.
// Construct it once at startup via NewSchema or LoadSchema.
type Schema struct {
	fields      []Field
	terminators map[string]struct{}
}

// NewSchema validates the field list and builds a Schema.
// An empty terminators slice selects the default vocabulary.
func NewSchema(fields []Field, terminators []string) (*Schema, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("ticket schema: no fields defined")
	}
	seen := make(map[string]struct{}, len(fields))
	for i, f := range fields {
		if strings.TrimSpace(f.Key) == "" {
			return nil, fmt.Errorf("ticket schema: field %d has empty key", i)
		}
		if _, dup := seen[f.Key]; dup {
			return nil, fmt.Errorf("ticket schema: duplicate field key %q", f.Key)
		}
		seen[f.Key] = struct{}{}
		if strings.TrimSpace(f.Prompt) == "" {
			return nil, fmt.Errorf("ticket schema: field %q has empty prompt", f.Key)
		}
		if strings.TrimSpace(f.BitrixField) == "" {
			return nil, fmt.Errorf("ticket schema: field %q has empty bitrix_field", f.Key)
		}
		switch f.Kind {
		case KindChoice:
			if len(f.Choices) == 0 {
				return nil, fmt.Errorf("ticket schema: choice field %q has no choices", f.Key)
			}
		case KindText, KindFileSet:
			if len(f.Choices) > 0 {
				return nil, fmt.Errorf("ticket schema: %s field %q must not declare choices", f.Kind, f.Key)
			}
		default:
			return nil, fmt.Errorf("ticket schema: field %q has invalid kind", f.Key)
		}
	}

	if len(terminators) == 0 {
		terminators = defaultTerminators
	}
	term := make(map[string]struct{}, len(terminators))
	for _, t := range terminators {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		term[t] = struct{}{}
	}
	if len(term) == 0 {
		return nil, fmt.Errorf("ticket schema: terminator list is empty")
	}

	return &Schema{
		fields:      append([]Field(nil), fields...),
		terminators: term,
	}, nil
}

// schemaFile mirrors the YAML layout of a fields file.
type schemaFile struct {
	Fields      []Field  `yaml:"fields"`
	Terminators []string `yaml:"terminators"`
}

// LoadSchema reads a field schema from a YAML file.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fields file: %w", err)
	}
	var file schemaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse fields file: %w", err)
	}
	return NewSchema(file.Fields, file.Terminators)
}

// DefaultSchema returns the built-in ticket field sequence.
func DefaultSchema() *Schema {
	s, err := NewSchema([]Field{
		{
			Key:         "name",
			Kind:        KindText,
			Prompt:      "Как вас зовут?",
			BitrixField: "UF_CRM_NAME",
		},
		{
			Key:         "description",
			Kind:        KindText,
			Prompt:      "Опишите проблему.",
			BitrixField: "UF_CRM_DESCRIPTION",
		},
		{
			Key:         "priority",
			Kind:        KindChoice,
			Prompt:      "Выберите приоритет заявки.",
			Choices:     []string{"Низкий", "Средний", "Высокий"},
			BitrixField: "UF_CRM_PRIORITY",
		},
		{
			Key:         "files",
			Kind:        KindFileSet,
			Prompt:      "Пришлите файлы или фото (или напишите «готово»).",
			BitrixField: "UF_CRM_FILES",
		},
	}, nil)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	return len(s.fields)
}

// Field returns the field at index i.
func (s *Schema) Field(i int) Field {
	return s.fields[i]
}

// Fields returns a copy of the field list.
func (s *Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// IsTerminator reports whether the text ends a files field,
// compared lowercase so that any letter case works.
func (s *Schema) IsTerminator(text string) bool {
	_, ok := s.terminators[strings.ToLower(strings.TrimSpace(text))]
	return ok
}
