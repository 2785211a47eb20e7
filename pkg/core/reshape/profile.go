package reshape

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"credit_analysis/pkg/core/validate"
)

// Unsuffixed keys for single-valued entities.
const (
	KeyCompanyName               = "companyName"
	KeyTaxID                     = "taxId"
	KeySector                    = "sector"
	KeyFoundedYear               = "foundedYear"
	KeyProtests                  = "protests"
	KeyLawsuits                  = "lawsuits"
	KeyBankruptcyFilings         = "bankruptcyFilings"
	KeyTaxClearance              = "taxClearance"
	KeyLaborClearance            = "laborClearance"
	KeyLargestCustomersRevenue   = "largestCustomersRevenue"
	KeyLargestSuppliersPurchases = "largestSuppliersPurchases"
	KeyGuaranteeValue            = "guaranteeValue"
	KeyRequestedCredit           = "requestedCredit"
	KeyRelationshipYears         = "relationshipYears"
)

// Company identifies the assessed entity.
type Company struct {
	Name        string `json:"name" validate:"required"`
	TaxID       string `json:"tax_id" validate:"required"`
	Sector      string `json:"sector,omitempty"`
	FoundedYear int    `json:"founded_year,omitempty"`
}

// Compliance holds the cadastral restriction facts.
type Compliance struct {
	Protests          int  `json:"protests"`
	Lawsuits          int  `json:"lawsuits"`
	BankruptcyFilings int  `json:"bankruptcy_filings"`
	TaxClearance      bool `json:"tax_clearance"`
	LaborClearance    bool `json:"labor_clearance"`
}

// Restrictions is the total count of negative cadastral records.
func (c Compliance) Restrictions() int {
	return c.Protests + c.Lawsuits + c.BankruptcyFilings
}

// Concentration holds counterparty concentration figures. Nil means not supplied.
type Concentration struct {
	LargestCustomersRevenue   *float64 `json:"largest_customers_revenue,omitempty"`
	LargestSuppliersPurchases *float64 `json:"largest_suppliers_purchases,omitempty"`
}

// Guarantees holds the collateral and relationship facts.
type Guarantees struct {
	GuaranteeValue    *float64 `json:"guarantee_value,omitempty"`
	RequestedCredit   *float64 `json:"requested_credit,omitempty"`
	RelationshipYears *float64 `json:"relationship_years,omitempty"`
}

// DebtRecord is one entry of the company's debt schedule.
type DebtRecord struct {
	Index       int     `json:"index"`
	Creditor    string  `json:"creditor"`
	Kind        string  `json:"kind,omitempty"`
	Balance     float64 `json:"balance"`
	Installment float64 `json:"installment"`
	Overdue     bool    `json:"overdue"`
}

// Profile is the cadastral/compliance object consumed by scoring.
type Profile struct {
	Company       Company       `json:"company"`
	Compliance    Compliance    `json:"compliance"`
	Concentration Concentration `json:"concentration"`
	Guarantees    Guarantees    `json:"guarantees"`
	Debts         []DebtRecord  `json:"debts,omitempty"`
}

// TotalDebt sums the balances of the debt schedule.
func (p *Profile) TotalDebt() float64 {
	var total float64
	for _, d := range p.Debts {
		total += d.Balance
	}
	return total
}

// ParseProfile reads the unsuffixed keys with the tolerant policy. Identity
// strings are trimmed; numbers fall back to zero; optional figures stay nil
// when absent.
func ParseProfile(raw map[string]any) *Profile {
	p := &Profile{
		Company: Company{
			Name:        stringValue(raw[KeyCompanyName]),
			TaxID:       stringValue(raw[KeyTaxID]),
			Sector:      stringValue(raw[KeySector]),
			FoundedYear: int(parseAmount(raw[KeyFoundedYear])),
		},
		Compliance: Compliance{
			Protests:          int(parseAmount(raw[KeyProtests])),
			Lawsuits:          int(parseAmount(raw[KeyLawsuits])),
			BankruptcyFilings: int(parseAmount(raw[KeyBankruptcyFilings])),
			TaxClearance:      parseFlag(raw[KeyTaxClearance]),
			LaborClearance:    parseFlag(raw[KeyLaborClearance]),
		},
		Concentration: Concentration{
			LargestCustomersRevenue:   optionalAmount(raw[KeyLargestCustomersRevenue]),
			LargestSuppliersPurchases: optionalAmount(raw[KeyLargestSuppliersPurchases]),
		},
		Guarantees: Guarantees{
			GuaranteeValue:    optionalAmount(raw[KeyGuaranteeValue]),
			RequestedCredit:   optionalAmount(raw[KeyRequestedCredit]),
			RelationshipYears: optionalAmount(raw[KeyRelationshipYears]),
		},
	}

	for _, idx := range debtIndexes(raw) {
		get := func(field string) any { return raw[debtKey(idx, field)] }
		p.Debts = append(p.Debts, DebtRecord{
			Index:       idx,
			Creditor:    stringValue(get("creditor")),
			Kind:        stringValue(get("kind")),
			Balance:     parseAmount(get("balance")),
			Installment: parseAmount(get("installment")),
			Overdue:     parseFlag(get("overdue")),
		})
	}
	return p
}

// =============================================================================
// DEBT RECORDS (strict)
// =============================================================================

var debtKeyPattern = regexp.MustCompile(`^debt_(\d+)_([A-Za-z]+)$`)

func debtKey(idx int, field string) string {
	return fmt.Sprintf("debt_%d_%s", idx, field)
}

func debtIndexes(raw map[string]any) []int {
	seen := map[int]bool{}
	for k := range raw {
		m := debtKeyPattern.FindStringSubmatch(k)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		seen[n] = true
	}
	idx := make([]int, 0, len(seen))
	for n := range seen {
		idx = append(idx, n)
	}
	sort.Ints(idx)
	return idx
}

// ParseDebtRecords parses the debt schedule for persistence. Unlike
// ParseProfile it never coerces: a missing creditor or an unparseable
// balance/installment is reported with the field and record it belongs to.
func ParseDebtRecords(raw map[string]any) ([]DebtRecord, error) {
	verr := &validate.ValidationError{}
	var records []DebtRecord

	for _, idx := range debtIndexes(raw) {
		record := fmt.Sprintf("debt[%d]", idx)
		get := func(field string) any { return raw[debtKey(idx, field)] }

		d := DebtRecord{
			Index:    idx,
			Creditor: stringValue(get("creditor")),
			Kind:     stringValue(get("kind")),
			Overdue:  parseFlag(get("overdue")),
		}

		if d.Creditor == "" {
			verr.Add(record, "creditor", "is required")
		}

		balance, ok := parseAmountStrict(get("balance"))
		switch {
		case get("balance") == nil:
			verr.Add(record, "balance", "is required")
		case !ok:
			verr.Add(record, "balance", fmt.Sprintf("%q is not a number", fmt.Sprint(get("balance"))))
		case balance < 0:
			verr.Add(record, "balance", "must not be negative")
		default:
			d.Balance = balance
		}

		if v := get("installment"); v != nil {
			inst, ok := parseAmountStrict(v)
			if !ok && stringValue(v) != "" {
				verr.Add(record, "installment", fmt.Sprintf("%q is not a number", fmt.Sprint(v)))
			}
			d.Installment = inst
		}

		records = append(records, d)
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return records, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func optionalAmount(v any) *float64 {
	f, ok := parseAmountStrict(v)
	if !ok {
		return nil
	}
	return &f
}
