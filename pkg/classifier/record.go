package classifier

import "strings"

// Record is the free-text input to classification. Any field may be empty.
type Record struct {
	Name        string `json:"name,omitempty"`
	GenericName string `json:"generic_name,omitempty"`
	Composition string `json:"composition,omitempty"`
	Description string `json:"description,omitempty"`
	Symptoms    string `json:"symptoms,omitempty"`
	Route       string `json:"route,omitempty"`
}

// IsEmpty reports whether every field is blank.
func (r Record) IsEmpty() bool {
	for _, f := range r.fields() {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func (r Record) fields() []string {
	return []string{r.Name, r.GenericName, r.Composition, r.Description, r.Symptoms, r.Route}
}

// preparedRecord holds the normalized texts a record is scored against.
type preparedRecord struct {
	search string
	names  []string
}

func prepare(r Record) preparedRecord {
	parts := make([]string, 0, 6)
	for _, f := range r.fields() {
		if n := normalizeText(f); n != "" {
			parts = append(parts, n)
		}
	}

	var names []string
	for _, f := range []string{r.Name, r.GenericName} {
		if n := normalizeText(f); n != "" {
			names = append(names, n)
		}
	}

	return preparedRecord{
		search: strings.Join(parts, fieldSeparator),
		names:  names,
	}
}
