package core

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category is one entry of the suggested classification vocabulary. The
// vocabulary is advisory: the ledger accepts any non-empty category key.
type Category struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
	Type TxType `yaml:"type"`
}

var categories = []Category{
	{Key: "salario", Name: "Salario", Type: Income},
	{Key: "freelance", Name: "Freelance", Type: Income},
	{Key: "inversion", Name: "Inversión", Type: Income},
	{Key: "comida", Name: "Comida", Type: Expense},
	{Key: "transporte", Name: "Transporte", Type: Expense},
	{Key: "entretenimiento", Name: "Entretenimiento", Type: Expense},
	{Key: "servicios", Name: "Servicios", Type: Expense},
	{Key: "salud", Name: "Salud", Type: Expense},
	{Key: "compras", Name: "Compras", Type: Expense},
	{Key: "otros", Name: "Otros", Type: Expense},
}

// SuggestedCategories returns the vocabulary, optionally restricted to one
// transaction type. Pass an empty type for everything.
func SuggestedCategories(t TxType) []Category {
	if t == "" {
		return append([]Category(nil), categories...)
	}
	var out []Category
	for _, c := range categories {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

// CategoryName resolves a key to its display name, falling back to the key
// itself for categories outside the vocabulary.
func CategoryName(key string) string {
	for _, c := range categories {
		if c.Key == key {
			return c.Name
		}
	}
	return key
}

// tableOverrides is the shape of the optional YAML configuration file that
// replaces or extends the built-in currency and category tables.
type tableOverrides struct {
	Currencies []CurrencyConfig `yaml:"currencies,omitempty"`
	Categories []Category       `yaml:"categories,omitempty"`
}

// LoadTableOverrides reads a YAML file of currency/category overrides and
// merges it into the built-in tables. Category entries with a known key
// replace the existing entry; new keys are appended.
func LoadTableOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading overrides file: %w", err)
	}
	var ov tableOverrides
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return fmt.Errorf("parsing overrides file: %w", err)
	}
	RegisterCurrencies(ov.Currencies)
	for _, c := range ov.Categories {
		c.Key = strings.TrimSpace(c.Key)
		if c.Key == "" || !c.Type.IsValid() {
			continue
		}
		replaced := false
		for i := range categories {
			if categories[i].Key == c.Key {
				categories[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			categories = append(categories, c)
		}
	}
	return nil
}
