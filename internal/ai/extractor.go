package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/agroconta/danfe-ledger-service/internal/models"
)

// Extractor turns DANFE text into a structured draft via an AI provider.
type Extractor struct {
	provider   Provider
	categories []string
}

func NewExtractor(provider Provider, categories []string) *Extractor {
	return &Extractor{provider: provider, categories: categories}
}

// Extract builds the extraction prompt, queries the provider and parses
// the response. It never returns an error: provider failures and
// unparseable responses come back as a draft with the erro payload
// filled in, which callers treat as a hard stop before resolution.
func (e *Extractor) Extract(ctx context.Context, documentText string) *models.Draft {
	raw, err := e.provider.Generate(ctx, e.buildPrompt(documentText))
	if err != nil {
		log.Printf("ai: extraction query failed: %v", err)
		return &models.Draft{Erro: "Falha na consulta", Detalhes: err.Error()}
	}
	return parseDraft(raw)
}

func (e *Extractor) buildPrompt(documentText string) string {
	var sb strings.Builder

	sb.WriteString("Você é um extrator de dados de DANFE (nota fiscal eletrônica brasileira).\n\n")

	if len(e.categories) > 0 {
		sb.WriteString("PRINCIPAIS CATEGORIAS DE DESPESAS:\n")
		for _, c := range e.categories {
			sb.WriteString("- " + c + "\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(`Retorne APENAS um JSON válido (sem markdown, sem explicações, sem texto extra) no formato EXATO:
{
  "fornecedor": {"razao_social": "", "nome_fantasia": "", "cnpj": ""},
  "faturado": {"nome_completo": "", "cpf": ""},
  "numero_nota_fiscal": "",
  "data_emissao": "",
  "descricao_produtos": [],
  "quantidade_parcelas": 1,
  "data_vencimento": "",
  "valor_total": "",
  "classificacao_despesa": []
}
Regras:
- Preencha com string vazia (""), lista vazia ([]) ou número conforme o tipo quando faltar informação; nunca use null.
- "classificacao_despesa" deve conter UMA OU MAIS das categorias principais listadas acima, escolhidas de acordo com as descrições dos produtos.
- Datas no formato YYYY-MM-DD ou DD/MM/YYYY, exatamente como aparecem na nota.

Texto da nota a analisar:
`)
	sb.WriteString(documentText)
	return sb.String()
}

// rawDraft mirrors the contract with loose numeric types: the model
// sometimes returns valor_total as a number and quantidade_parcelas as a
// string.
type rawDraft struct {
	Fornecedor           models.DraftSupplier `json:"fornecedor"`
	Faturado             models.DraftPayee    `json:"faturado"`
	NumeroNotaFiscal     string               `json:"numero_nota_fiscal"`
	DataEmissao          string               `json:"data_emissao"`
	DescricaoProdutos    []string             `json:"descricao_produtos"`
	QuantidadeParcelas   interface{}          `json:"quantidade_parcelas"`
	DataVencimento       string               `json:"data_vencimento"`
	ValorTotal           interface{}          `json:"valor_total"`
	ClassificacaoDespesa []string             `json:"classificacao_despesa"`
}

// parseDraft decodes the provider response, tolerating markdown fences and
// surrounding prose. Unparseable responses become an erro draft carrying a
// truncated copy of the raw text for troubleshooting.
func parseDraft(response string) *models.Draft {
	cleaned := strings.TrimSpace(response)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var raw rawDraft
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		// Second chance: extract the outermost JSON object.
		start, end := strings.Index(cleaned, "{"), strings.LastIndex(cleaned, "}")
		if start < 0 || end <= start {
			return &models.Draft{Erro: "JSON inválido", RespostaBruta: truncate(cleaned, 400)}
		}
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &raw); err != nil {
			return &models.Draft{Erro: "JSON inválido", RespostaBruta: truncate(cleaned, 400)}
		}
	}

	draft := &models.Draft{
		Fornecedor:           raw.Fornecedor,
		Faturado:             raw.Faturado,
		NumeroNotaFiscal:     raw.NumeroNotaFiscal,
		DataEmissao:          raw.DataEmissao,
		DescricaoProdutos:    raw.DescricaoProdutos,
		QuantidadeParcelas:   asInt(raw.QuantidadeParcelas, 1),
		DataVencimento:       raw.DataVencimento,
		ValorTotal:           asString(raw.ValorTotal),
		ClassificacaoDespesa: raw.ClassificacaoDespesa,
	}
	draft.Normalize()
	return draft
}

// asString renders a loose JSON value as a string. Numbers get a decimal
// comma so downstream amount parsing treats dots as thousands separators.
func asString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strings.ReplaceAll(strconv.FormatFloat(val, 'f', -1, 64), ".", ",")
	case json.Number:
		return strings.ReplaceAll(val.String(), ".", ",")
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}

func asInt(v interface{}, fallback int) int {
	switch val := v.(type) {
	case float64:
		if val >= 1 {
			return int(val)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil && n >= 1 {
			return n
		}
	case json.Number:
		if n, err := val.Int64(); err == nil && n >= 1 {
			return int(n)
		}
	}
	return fallback
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
