package phase

import (
	"time"

	"github.com/shopspring/decimal"
)

// Installment 分期条目
type Installment struct {
	Sequence int             `json:"sequence"`
	DueDate  time.Time       `json:"due_date"`
	Amount   decimal.Decimal `json:"amount"`
}

// PaymentExt PAYMENT 阶段扩展
// 引擎不移动资金,只消费外部支付事件累加 PaidAmount
type PaymentExt struct {
	TotalAmount       decimal.Decimal `json:"total_amount"`
	PaidAmount        decimal.Decimal `json:"paid_amount"`
	Currency          string          `json:"currency"`
	InterestRate      decimal.Decimal `json:"interest_rate"`
	PercentOfPrice    decimal.Decimal `json:"percent_of_price"`
	InstallmentCount  int             `json:"installment_count"`
	FrequencyMonths   int             `json:"frequency_months"`
	AmountFormula     string          `json:"amount_formula,omitempty"`
	Installments      []Installment   `json:"installments,omitempty"`
}

// IsPaidInFull 判断已付金额是否覆盖总额
func (p *PaymentExt) IsPaidInFull() bool {
	return p.PaidAmount.GreaterThanOrEqual(p.TotalAmount)
}

// Outstanding 剩余未付金额,已付清时为零
func (p *PaymentExt) Outstanding() decimal.Decimal {
	out := p.TotalAmount.Sub(p.PaidAmount)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}
