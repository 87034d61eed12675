package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
)

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCard         PaymentMethod = "card"
	PaymentTransfer     PaymentMethod = "transfer"
	PaymentOnlineWallet PaymentMethod = "online-wallet"
)

// ParsePaymentMethod accepts a method name in any letter case.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentOnlineWallet:
		return m, nil
	}
	return "", apperrors.Validationf("unsupported payment method %q", s)
}

type LineItem struct {
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

type InvoiceData struct {
	ClinicalRecordID int64          `json:"clinical_record_id" db:"clinical_record_id"`
	Items            []LineItem     `json:"items" db:"-"`
	Discount         float64        `json:"discount" db:"discount"`
	TaxRate          float64        `json:"tax_rate" db:"tax_rate"`
	Total            float64        `json:"total" db:"total"`
	PaymentMethod    *PaymentMethod `json:"payment_method,omitempty" db:"payment_method"`
	PaidAt           *time.Time     `json:"paid_at,omitempty" db:"paid_at"`
}

type Invoice struct {
	Base
	d InvoiceData
}

func NewInvoice(recordID int64) (*Invoice, error) {
	if recordID <= 0 {
		return nil, apperrors.Validation("clinical record id is required")
	}
	return &Invoice{d: InvoiceData{ClinicalRecordID: recordID}}, nil
}

func RestoreInvoice(b Base, d InvoiceData) *Invoice {
	d.Items = append([]LineItem(nil), d.Items...)
	if d.PaymentMethod != nil {
		m := *d.PaymentMethod
		d.PaymentMethod = &m
	}
	if d.PaidAt != nil {
		at := *d.PaidAt
		d.PaidAt = &at
	}
	return &Invoice{Base: b, d: d}
}

func (i *Invoice) ClinicalRecordID() int64 { return i.d.ClinicalRecordID }
func (i *Invoice) Total() float64          { return i.d.Total }
func (i *Invoice) Items() []LineItem       { return append([]LineItem(nil), i.d.Items...) }

func (i *Invoice) Payment() (PaymentMethod, time.Time, bool) {
	if i.d.PaymentMethod == nil || i.d.PaidAt == nil {
		return "", time.Time{}, false
	}
	return *i.d.PaymentMethod, *i.d.PaidAt, true
}

// ComputeTotal sets total = max(0, sum(prices) - discount) * (1 + taxRate),
// rounded to cents.
func (i *Invoice) ComputeTotal(items []LineItem, discount, taxRate float64) error {
	if discount < 0 {
		return apperrors.Validation("discount must not be negative")
	}
	if taxRate < 0 {
		return apperrors.Validation("tax rate must not be negative")
	}
	var subtotal float64
	for _, it := range items {
		if it.Price < 0 {
			return apperrors.Validationf("price of %q must not be negative", it.Description)
		}
		subtotal += it.Price
	}
	i.d.Items = append([]LineItem(nil), items...)
	i.d.Discount = discount
	i.d.TaxRate = taxRate
	i.d.Total = roundCents(math.Max(0, subtotal-discount) * (1 + taxRate))
	return nil
}

// RegisterPayment records the method and date; a zero date means now.
func (i *Invoice) RegisterPayment(method string, at time.Time) error {
	m, err := ParsePaymentMethod(method)
	if err != nil {
		return err
	}
	if at.IsZero() {
		at = time.Now()
	}
	i.d.PaymentMethod = &m
	i.d.PaidAt = &at
	return nil
}

// Summary renders a plain-text statement of the invoice.
func (i *Invoice) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Invoice #%d for clinical record #%d\n", i.ID, i.d.ClinicalRecordID)
	for _, it := range i.d.Items {
		fmt.Fprintf(&b, "  %-30s %10.2f\n", it.Description, it.Price)
	}
	fmt.Fprintf(&b, "Discount: %.2f\n", i.d.Discount)
	fmt.Fprintf(&b, "Tax: %.0f%%\n", i.d.TaxRate*100)
	fmt.Fprintf(&b, "Total: %.2f\n", i.d.Total)
	if m, at, ok := i.Payment(); ok {
		fmt.Fprintf(&b, "Paid by %s on %s\n", m, at.Format("2006-01-02"))
	} else {
		b.WriteString("Payment pending\n")
	}
	return b.String()
}

func (i *Invoice) Snapshot() InvoiceData {
	return i.Clone().d
}

func (i *Invoice) Clone() *Invoice {
	return RestoreInvoice(i.Base, i.d)
}

func (i *Invoice) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Base
		InvoiceData
	}{i.Base, i.Snapshot()})
}

type InvoiceFilter struct {
	ClinicalRecordID int64
	Paid             *bool
}
