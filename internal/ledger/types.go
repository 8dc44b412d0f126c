// Package ledger is the gateway to the upstream financial/ERP system of
// record. It speaks the upstream's envelope protocol, retries transient
// failures with exponential backoff, and normalizes the loosely-shaped
// responses (payload arrays and pagination counters appear under several
// field-name spellings depending on resource type).
package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FlexString decodes a JSON string or number into a string. The upstream is
// inconsistent about whether codes are serialized as numbers or strings, and
// all project/category comparisons in the classifier are string equality.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("flex string: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string { return string(f) }

// Direction flags carried by movements.
const (
	DirectionInflow  = "R" // receivable
	DirectionOutflow = "P" // payable
)

type (
	// Project is the upstream's own record for a real-estate operation,
	// joined to the local Property by normalized name.
	Project struct {
		Code FlexString `json:"codigo"`
		Name string     `json:"nome"`
	}

	// Movement is one financial ledger entry (payment or receipt).
	// A movement belongs to at most one project and carries exactly one
	// direction flag.
	Movement struct {
		Details MovementDetails `json:"detalhes"`
		Summary MovementSummary `json:"resumo"`
	}

	MovementDetails struct {
		ProjectCode      FlexString `json:"nCodProjeto"`
		CategoryCode     FlexString `json:"cCodCateg"`
		CategoryDesc     string     `json:"cDescCateg,omitempty"`
		Direction        string     `json:"cNatureza"`
		CounterpartTaxID string     `json:"cCPFCNPJCliente"`
		Status           string     `json:"cStatus,omitempty"`
		IssueDate        string     `json:"dDtEmissao,omitempty"`
		DueDate          string     `json:"dDtVenc,omitempty"`
		PaymentDate      string     `json:"dDtPagamento,omitempty"`
	}

	MovementSummary struct {
		PaidAmount float64 `json:"nValPago"`
		OpenAmount float64 `json:"nValAberto,omitempty"`
		NetAmount  float64 `json:"nValLiquido,omitempty"`
	}

	// Category maps a category code to its human description.
	Category struct {
		Code        FlexString `json:"codigo"`
		Description string     `json:"descricao"`
	}

	// Counterpart is the entity on the other side of a movement. Used only
	// for itemized cost listings; never part of the aggregation decision.
	Counterpart struct {
		TaxID     string `json:"cnpj_cpf"`
		Name      string `json:"razao_social"`
		TradeName string `json:"nome_fantasia,omitempty"`
	}
)

// DisplayName prefers the trade name over the registered name.
func (c Counterpart) DisplayName() string {
	if s := strings.TrimSpace(c.TradeName); s != "" {
		return s
	}
	return strings.TrimSpace(c.Name)
}
