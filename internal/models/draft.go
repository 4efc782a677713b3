package models

// Draft is the AI-extracted, not-yet-validated representation of a DANFE.
// Missing fields are empty strings / empty lists, never null or omitted,
// so downstream consumers never branch on presence. When extraction fails
// the Erro fields are populated instead and the draft must not enter
// resolution.
type Draft struct {
	Fornecedor           DraftSupplier `json:"fornecedor"`
	Faturado             DraftPayee    `json:"faturado"`
	NumeroNotaFiscal     string        `json:"numero_nota_fiscal"`
	DataEmissao          string        `json:"data_emissao"`
	DescricaoProdutos    []string      `json:"descricao_produtos"`
	QuantidadeParcelas   int           `json:"quantidade_parcelas"`
	DataVencimento       string        `json:"data_vencimento"`
	ValorTotal           string        `json:"valor_total"`
	ClassificacaoDespesa []string      `json:"classificacao_despesa"`

	// Failure payload. Presence of Erro is a hard stop for the pipeline.
	Erro          string `json:"erro,omitempty"`
	Detalhes      string `json:"detalhes,omitempty"`
	RespostaBruta string `json:"resposta_bruta,omitempty"`
}

// DraftSupplier is the extracted supplier block.
type DraftSupplier struct {
	RazaoSocial  string `json:"razao_social"`
	NomeFantasia string `json:"nome_fantasia"`
	CNPJ         string `json:"cnpj"`
}

// DraftPayee is the extracted payee block.
type DraftPayee struct {
	NomeCompleto string `json:"nome_completo"`
	CPF          string `json:"cpf"`
}

// Failed reports whether the draft carries an extraction failure payload.
func (d *Draft) Failed() bool {
	return d.Erro != ""
}

// Normalize replaces nil slices with empty ones so the JSON contract never
// emits null.
func (d *Draft) Normalize() {
	if d.DescricaoProdutos == nil {
		d.DescricaoProdutos = []string{}
	}
	if d.ClassificacaoDespesa == nil {
		d.ClassificacaoDespesa = []string{}
	}
}
