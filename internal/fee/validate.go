package fee

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"marketplace-recon-api/internal/constant"
	"marketplace-recon-api/internal/dto"
	reconmodel "marketplace-recon-api/internal/model/recon"
	"marketplace-recon-api/internal/utils/timeutil"
)

var hundred = decimal.NewFromInt(100)

// BuildPeriod 校验请求并转换为模型，所有问题一次性返回
func BuildPeriod(req dto.FeePeriodReq) (*reconmodel.FeePeriod, error) {
	var problems []string

	mp := NormalizeMarketplace(req.Marketplace)
	if !dto.IsKnownMarketplace(mp) {
		problems = append(problems, fmt.Sprintf("unknown marketplace %q", req.Marketplace))
	}

	from, err := timeutil.ParseDate(req.ValidFrom)
	if err != nil {
		problems = append(problems, "valid_from must be YYYY-MM-DD")
	}
	var to *time.Time
	if strings.TrimSpace(req.ValidTo) != "" {
		t, err := timeutil.ParseDate(req.ValidTo)
		if err != nil {
			problems = append(problems, "valid_to must be YYYY-MM-DD")
		} else {
			to = &t
		}
	}
	if to != nil && !from.IsZero() && to.Before(from) {
		problems = append(problems, "valid_to is before valid_from")
	}

	percents := []struct {
		name string
		v    decimal.Decimal
	}{
		{"commission_percent", req.CommissionPercent},
		{"service_fee_percent", req.ServiceFeePercent},
		{"payment_fee_percent", req.PaymentFeePercent},
		{"shipping_fee_percent", req.ShippingFeePercent},
		{"ads_fee_percent", req.AdsFeePercent},
	}
	for _, p := range percents {
		if p.v.IsNegative() || p.v.GreaterThan(hundred) {
			problems = append(problems, p.name+" must be within [0,100]")
		}
	}
	if req.FixedFeePerOrder.IsNegative() {
		problems = append(problems, "fixed_fee_per_order must be >= 0")
	}
	if req.FixedFeePerProduct.IsNegative() {
		problems = append(problems, "fixed_fee_per_product must be >= 0")
	}

	if len(problems) > 0 {
		return nil, constant.Errorf(constant.CodeInvalidParams, "%s", strings.Join(problems, "; ")).WithData(problems)
	}
	return &reconmodel.FeePeriod{
		Marketplace:        mp,
		ValidFrom:          from,
		ValidTo:            to,
		CommissionPercent:  req.CommissionPercent,
		ServiceFeePercent:  req.ServiceFeePercent,
		PaymentFeePercent:  req.PaymentFeePercent,
		FixedFeePerOrder:   req.FixedFeePerOrder,
		FixedFeePerProduct: req.FixedFeePerProduct,
		ShippingFeePercent: req.ShippingFeePercent,
		AdsFeePercent:      req.AdsFeePercent,
		Notes:              req.Notes,
	}, nil
}

// 闭区间是否相交，nil 结束日视为无穷大
func overlaps(a, b reconmodel.FeePeriod) bool {
	aFrom, bFrom := timeutil.DateOf(a.ValidFrom), timeutil.DateOf(b.ValidFrom)
	if b.ValidTo != nil && aFrom.After(timeutil.DateOf(*b.ValidTo)) {
		return false
	}
	if a.ValidTo != nil && bFrom.After(timeutil.DateOf(*a.ValidTo)) {
		return false
	}
	return true
}

// CheckOverlap 新区间不得与同平台其它区间重叠（自身 id 除外）
func CheckOverlap(candidate reconmodel.FeePeriod, existing []reconmodel.FeePeriod) error {
	var ids []uint64
	for _, p := range existing {
		if p.ID == candidate.ID && candidate.ID != 0 {
			continue
		}
		if overlaps(candidate, p) {
			ids = append(ids, p.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return constant.Errorf(constant.CodeFeePeriodOverlap, "费率区间与已有区间重叠: %v", ids).
		WithData(map[string]interface{}{"conflicting_ids": ids})
}
