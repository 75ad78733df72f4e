package utils

import (
	"encoding/json"
	"strings"
)

// StringOrNumber 兼容平台接口中订单号为 string 或 number 的情况（如 Mercado Livre 数字订单号）
type StringOrNumber string

func (s *StringOrNumber) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*s = ""
		return nil
	}

	// 首字符为引号 => 字符串
	if b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = StringOrNumber(str)
		return nil
	}

	// 否则为数字，按原文保留，避免 float 精度丢失
	*s = StringOrNumber(strings.TrimSpace(string(b)))
	return nil
}

func (s StringOrNumber) String() string {
	return string(s)
}
