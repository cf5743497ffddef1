package classifier

import (
	"expense-ingest/pkg/textnorm"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var canonicalLabels = map[string]string{
	"alimentacao":    "Alimentacao",
	"alimento":       "Alimentacao",
	"transporte":     "Transporte",
	"saude":          "Saude",
	"mercado":        "Mercado",
	"moradia":        "Moradia",
	"contas":         "Contas",
	"lazer":          "Lazer",
	"educacao":       "Educacao",
	"vestuario":      "Vestuario",
	"servicos":       "Servicos",
	"pets":           "Pets",
	"viagem":         "Viagem",
	"assinaturas":    "Assinaturas",
	"impostos":       "Impostos",
	"transferencias": "Transferencias",
	"investimentos":  "Investimentos",
	"outros":         "Outros",
}

// CanonicalLabel maps a model label onto the category vocabulary. Unknown
// labels are folded and title-cased word by word.
func CanonicalLabel(label string) string {
	folded := textnorm.Fold(label)
	if name, ok := canonicalLabels[folded]; ok {
		return name
	}
	// a Caser keeps state between calls, so it is not shared
	return cases.Title(language.BrazilianPortuguese).String(folded)
}
