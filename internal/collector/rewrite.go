package collector

import "strings"

// RewriteURL 按 "OLD>NEW" 规则替换 URL 中所有 OLD 子串。
// 规则为空或格式不合法时原样返回，不视为错误。
func RewriteURL(u, rule string) string {
	if rule == "" {
		return u
	}
	parts := strings.Split(rule, ">")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return u
	}
	return strings.ReplaceAll(u, parts[0], parts[1])
}
