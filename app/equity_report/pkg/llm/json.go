package llm

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/bytedance/sonic"
	"github.com/kaptinlin/jsonrepair"
)

// CleanJSON 去掉模型输出中的 markdown 代码块标记
func CleanJSON(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "```"); i >= 0 {
		s = stripFenceTag(s[i+3:])
		if j := strings.LastIndex(s, "```"); j >= 0 {
			s = s[:j]
		}
	}
	return strings.TrimSpace(s)
}

// stripFenceTag 去掉代码块开头的语言标记，如 json、JSON
func stripFenceTag(s string) string {
	if line, rest, ok := strings.Cut(s, "\n"); ok {
		if strings.TrimLeftFunc(strings.TrimSpace(line), unicode.IsLetter) == "" {
			return rest
		}
		return s
	}
	if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		return s[4:]
	}
	return s
}

// DecodeJSON 解析模型输出的 JSON，失败时尝试修复一次
func DecodeJSON(raw string, v any) error {
	clean := CleanJSON(raw)
	err := sonic.UnmarshalString(clean, v)
	if err == nil {
		return nil
	}
	repaired, rerr := jsonrepair.JSONRepair(clean)
	if rerr != nil {
		return fmt.Errorf("json unmarshal: %w", err)
	}
	if err := sonic.UnmarshalString(repaired, v); err != nil {
		return fmt.Errorf("json unmarshal after repair: %w", err)
	}
	return nil
}
