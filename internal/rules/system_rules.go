package rules

// 内置规则，不落库
var systemRules = []Rule{
	{Name: "reembolso", Pattern: `reembols|estorno|devolu|chargeback|refund`, Tags: []string{"reembolso"}, Priority: 100, Category: "refund"},
	{Name: "ajuste", Pattern: `ajuste|compensacao|correcao|adjust`, Tags: []string{"ajuste"}, Priority: 90, Category: "adjustment"},
	{Name: "marketing", Pattern: `marketing|publicidade|anuncio|\bads\b|patrocinad`, Tags: []string{"marketing", "ads"}, Priority: 85, MarkExpense: true, Category: "marketing"},
	{Name: "taxa", Pattern: `taxa|tarifa|comiss|\bmdr\b|\bfee\b`, Tags: []string{"taxa"}, Priority: 80, Category: "fee"},
	{Name: "frete", Pattern: `frete|envio|shipping|logistic`, Tags: []string{"frete"}, Priority: 80, Category: "shipping"},
	{Name: "saque", Pattern: `saque|retirada|transferencia|withdraw`, Tags: []string{"saque", "retirada"}, Priority: 70, MarkExpense: true, Category: "withdrawal"},
	{Name: "desconto", Pattern: `desconto|cupom|abatimento|voucher|discount`, Tags: []string{"desconto"}, Priority: 60, Category: "discount"},
}

// SystemRules 内置规则副本
func SystemRules() []Rule {
	out := make([]Rule, len(systemRules))
	for i, r := range systemRules {
		r.IsSystemRule = true
		out[i] = r
	}
	return out
}
