package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider returns a canned response or error.
type stubProvider struct {
	response string
	err      error
}

func (s *stubProvider) Generate(_ context.Context, _ string) (string, error) {
	return s.response, s.err
}

const goodResponse = `{
  "fornecedor": {"razao_social": "Agropecuaria Boa Safra LTDA", "nome_fantasia": "Boa Safra", "cnpj": "12.345.678/0001-95"},
  "faturado": {"nome_completo": "Jose da Silva", "cpf": "123.456.789-01"},
  "numero_nota_fiscal": "1234",
  "data_emissao": "2024-01-31",
  "descricao_produtos": ["Adubo NPK 20-05-20"],
  "quantidade_parcelas": 2,
  "data_vencimento": "",
  "valor_total": "1.234,56",
  "classificacao_despesa": ["Fertilizantes"]
}`

func TestExtract_WellFormedResponse(t *testing.T) {
	e := NewExtractor(&stubProvider{response: goodResponse}, nil)

	draft := e.Extract(context.Background(), "texto da nota")
	require.False(t, draft.Failed())
	assert.Equal(t, "12.345.678/0001-95", draft.Fornecedor.CNPJ)
	assert.Equal(t, "Jose da Silva", draft.Faturado.NomeCompleto)
	assert.Equal(t, 2, draft.QuantidadeParcelas)
	assert.Equal(t, "1.234,56", draft.ValorTotal)
	assert.Equal(t, []string{"Fertilizantes"}, draft.ClassificacaoDespesa)
}

func TestExtract_MarkdownFencedResponse(t *testing.T) {
	fenced := "```json\n" + goodResponse + "\n```"
	e := NewExtractor(&stubProvider{response: fenced}, nil)

	draft := e.Extract(context.Background(), "texto")
	require.False(t, draft.Failed())
	assert.Equal(t, "1234", draft.NumeroNotaFiscal)
}

func TestExtract_JSONEmbeddedInProse(t *testing.T) {
	wrapped := "Claro! Segue o resultado:\n" + goodResponse + "\nEspero ter ajudado."
	e := NewExtractor(&stubProvider{response: wrapped}, nil)

	draft := e.Extract(context.Background(), "texto")
	require.False(t, draft.Failed())
	assert.Equal(t, "2024-01-31", draft.DataEmissao)
}

func TestExtract_NumericValorTotalAndStringParcelas(t *testing.T) {
	response := `{
	  "fornecedor": {"razao_social": "", "nome_fantasia": "", "cnpj": ""},
	  "faturado": {"nome_completo": "", "cpf": ""},
	  "quantidade_parcelas": "3",
	  "valor_total": 1234.56
	}`
	e := NewExtractor(&stubProvider{response: response}, nil)

	draft := e.Extract(context.Background(), "texto")
	require.False(t, draft.Failed())
	assert.Equal(t, 3, draft.QuantidadeParcelas)
	// Rendered with a decimal comma so the amount parser reads it back as-is.
	assert.Equal(t, "1234,56", draft.ValorTotal)
}

func TestExtract_MissingFieldsDefaultNotNull(t *testing.T) {
	e := NewExtractor(&stubProvider{response: `{"fornecedor": {"cnpj": "123"}}`}, nil)

	draft := e.Extract(context.Background(), "texto")
	require.False(t, draft.Failed())
	assert.Equal(t, 1, draft.QuantidadeParcelas, "installment count defaults to 1")
	assert.NotNil(t, draft.DescricaoProdutos)
	assert.NotNil(t, draft.ClassificacaoDespesa)
	assert.Empty(t, draft.ValorTotal)
}

func TestExtract_ProviderFailureDegradesToErroDraft(t *testing.T) {
	e := NewExtractor(&stubProvider{err: errors.New("deadline exceeded")}, nil)

	draft := e.Extract(context.Background(), "texto")
	require.True(t, draft.Failed())
	assert.Equal(t, "Falha na consulta", draft.Erro)
	assert.Contains(t, draft.Detalhes, "deadline exceeded")
}

func TestExtract_GarbageResponseDegradesToErroDraft(t *testing.T) {
	e := NewExtractor(&stubProvider{response: "not json at all"}, nil)

	draft := e.Extract(context.Background(), "texto")
	require.True(t, draft.Failed())
	assert.Equal(t, "JSON inválido", draft.Erro)
	assert.Equal(t, "not json at all", draft.RespostaBruta)
}

func TestExtract_RawResponseTruncated(t *testing.T) {
	e := NewExtractor(&stubProvider{response: strings.Repeat("x", 1000)}, nil)

	draft := e.Extract(context.Background(), "texto")
	require.True(t, draft.Failed())
	assert.Len(t, draft.RespostaBruta, 400)
}

func TestBuildPrompt_IncludesCategoriesAndText(t *testing.T) {
	e := NewExtractor(&stubProvider{}, []string{"Fertilizantes", "Sementes"})

	prompt := e.buildPrompt("TEXTO DA NOTA")
	assert.Contains(t, prompt, "- Fertilizantes")
	assert.Contains(t, prompt, "- Sementes")
	assert.Contains(t, prompt, "TEXTO DA NOTA")
	assert.Contains(t, prompt, `"classificacao_despesa": []`)
}
