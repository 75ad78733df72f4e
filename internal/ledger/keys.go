package ledger

import (
	"regexp"
	"strconv"
	"strings"

	"marketplace-recon-api/internal/dto"
)

var kindSuffix = map[string]string{
	dto.EventKindAdjustment: "_AJUSTE",
	dto.EventKindRefund:     "_REEMBOLSO",
	dto.EventKindWithdrawal: "_RETIRADA",
}

var baseIDPattern = regexp.MustCompile(`_(?:AJUSTE|REEMBOLSO|RETIRADA)(?:_\d+)?$|_\d+$`)

// EventKey 同一订单第 n 个同类事件的去重键，n<=1 时不带序号
func EventKey(baseID, kind string, n int) string {
	suffix, ok := kindSuffix[kind]
	if !ok {
		return baseID
	}
	key := baseID + suffix
	if n > 1 {
		key += "_" + strconv.Itoa(n)
	}
	return key
}

// BaseOrderID 去掉事件后缀，得到平台原始订单号
func BaseOrderID(key string) string {
	return baseIDPattern.ReplaceAllString(strings.TrimSpace(key), "")
}

// KindOf 未显式给出事件类型时按交易类型文本推断
func KindOf(d dto.PaymentDraft) string {
	if d.EventKind != "" {
		return strings.ToLower(d.EventKind)
	}
	t := strings.ToLower(d.TransactionType)
	switch {
	case strings.Contains(t, "ajuste"):
		return dto.EventKindAdjustment
	case strings.Contains(t, "reembolso"):
		return dto.EventKindRefund
	case strings.Contains(t, "retirada"):
		return dto.EventKindWithdrawal
	}
	return dto.EventKindSale
}

// eventSeq key 是 base 的第几个 kind 事件
func eventSeq(key, base, kind string) (int, bool) {
	first := EventKey(base, kind, 1)
	if first == base {
		return 0, false
	}
	if key == first {
		return 1, true
	}
	rest, ok := strings.CutPrefix(key, first+"_")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 2 {
		return 0, false
	}
	return n, true
}

func hasSuffix(key string) bool {
	return BaseOrderID(key) != strings.TrimSpace(key)
}

// AssignEventKeys 同一份对账单内的非销售事件按出现顺序编号，重复导入得到相同的键
func AssignEventKeys(drafts []dto.PaymentDraft) []dto.PaymentDraft {
	out := make([]dto.PaymentDraft, len(drafts))
	seen := map[string]int{}
	for i, d := range drafts {
		d.MarketplaceOrderID = strings.TrimSpace(d.MarketplaceOrderID)
		kind := KindOf(d)
		d.EventKind = kind
		if kind != dto.EventKindSale && d.MarketplaceOrderID != "" && !hasSuffix(d.MarketplaceOrderID) {
			k := strings.ToLower(d.Marketplace) + "|" + d.MarketplaceOrderID + "|" + kind
			seen[k]++
			d.MarketplaceOrderID = EventKey(d.MarketplaceOrderID, kind, seen[k])
		}
		out[i] = d
	}
	return out
}
