package classifier

import (
	"fmt"
	"os"
	"strings"

	"expense-ingest/pkg/textnorm"

	"gopkg.in/yaml.v3"
)

// KeywordRule maps a set of keywords to one category name.
type KeywordRule struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// KeywordTable is an ordered list of rules; the first rule with a matching
// keyword wins. The zero value matches nothing.
type KeywordTable struct {
	rules []KeywordRule
}

// NewKeywordTable copies rules and folds every keyword so matching is
// accent and case insensitive.
func NewKeywordTable(rules []KeywordRule) KeywordTable {
	copied := make([]KeywordRule, 0, len(rules))
	for _, r := range rules {
		kws := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			if k = textnorm.Fold(k); k != "" {
				kws = append(kws, k)
			}
		}
		copied = append(copied, KeywordRule{Category: strings.TrimSpace(r.Category), Keywords: kws})
	}
	return KeywordTable{rules: copied}
}

// Match returns the category of the first rule with a keyword contained in
// the folded description.
func (t KeywordTable) Match(description string) (string, bool) {
	folded := textnorm.Fold(description)
	if folded == "" {
		return "", false
	}
	for _, r := range t.rules {
		for _, k := range r.Keywords {
			if strings.Contains(folded, k) {
				return r.Category, true
			}
		}
	}
	return "", false
}

// Categories lists the category names in table order.
func (t KeywordTable) Categories() []string {
	names := make([]string, len(t.rules))
	for i, r := range t.rules {
		names[i] = r.Category
	}
	return names
}

func (t KeywordTable) Len() int { return len(t.rules) }

type keywordFile struct {
	Rules []KeywordRule `yaml:"rules"`
}

// LoadKeywordTable reads a YAML file of the form
//
//	rules:
//	  - category: Alimentacao
//	    keywords: [ifood, padaria]
func LoadKeywordTable(path string) (KeywordTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return KeywordTable{}, fmt.Errorf("failed to read keyword file: %w", err)
	}

	var f keywordFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return KeywordTable{}, fmt.Errorf("failed to parse keyword file: %w", err)
	}
	if len(f.Rules) == 0 {
		return KeywordTable{}, fmt.Errorf("keyword file %s has no rules", path)
	}

	for i, r := range f.Rules {
		if strings.TrimSpace(r.Category) == "" {
			return KeywordTable{}, fmt.Errorf("keyword rule %d has no category", i)
		}
	}

	return NewKeywordTable(f.Rules), nil
}

// DefaultKeywordTable is the built-in Brazilian retail vocabulary.
func DefaultKeywordTable() KeywordTable {
	return NewKeywordTable([]KeywordRule{
		{Category: "Alimentacao", Keywords: []string{"ifood", "ubereats", "delivery", "restaurante", "lanchonete", "padaria", "pizzaria", "burger", "bar", "cafe", "cafeteria"}},
		{Category: "Transporte", Keywords: []string{"uber", "99", "taxi", "gasolina", "combustivel", "metro", "onibus", "estacionamento", "pedagio"}},
		{Category: "Saude", Keywords: []string{"farmacia", "drogaria", "medico", "consulta", "exame", "laboratorio", "clinica", "hospital", "dentista"}},
		{Category: "Mercado", Keywords: []string{"supermercado", "mercado", "atacadao", "hortifruti", "feira"}},
		{Category: "Moradia", Keywords: []string{"aluguel", "condominio", "iptu", "imovel"}},
		{Category: "Contas", Keywords: []string{"luz", "energia", "agua", "gas", "internet", "telefone"}},
		{Category: "Lazer", Keywords: []string{"cinema", "netflix", "spotify", "show", "viagem", "parque"}},
		{Category: "Educacao", Keywords: []string{"curso", "faculdade", "escola", "livro", "mensalidade"}},
		{Category: "Vestuario", Keywords: []string{"roupa", "tenis", "sapato", "loja", "calcado"}},
		{Category: "Servicos", Keywords: []string{"barbearia", "salao", "lavanderia", "manutencao", "oficina"}},
		{Category: "Pets", Keywords: []string{"pet", "veterinario", "racao", "petshop"}},
		{Category: "Assinaturas", Keywords: []string{"prime", "assinatura", "mensalidade", "office", "google drive"}},
		{Category: "Impostos", Keywords: []string{"taxa", "multa", "imposto"}},
		{Category: "Transferencias", Keywords: []string{"pix", "transferencia", "ted", "doc"}},
		{Category: "Investimentos", Keywords: []string{"corretora", "tesouro", "aplicacao", "aporte"}},
	})
}
