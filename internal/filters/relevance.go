package filters

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
)

// RelevanceConfig 对应 eprint_config.json：{keywords, authors, exclude}
type RelevanceConfig struct {
	Keywords []string `json:"keywords"`
	Authors  []string `json:"authors"`
	Exclude  []string `json:"exclude"`
}

// Paper 是相关性判断所需的预印本字段
type Paper struct {
	Identifier  string
	Title       string
	Creators    []string
	Description string
	Subject     string
}

// RelevanceFilter 每次运行只构建一次，之后只读，可被并发共享
type RelevanceFilter struct {
	keywords []string
	authors  map[string]struct{}
	exclude  []string
}

func LoadRelevanceConfig(path string) (RelevanceConfig, error) {
	var cfg RelevanceConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read relevance config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse relevance config %s: %w", path, err)
	}
	log.Printf("relevance config loaded: keywords=%d authors=%d exclude=%d",
		len(cfg.Keywords), len(cfg.Authors), len(cfg.Exclude))
	return cfg, nil
}

func NewRelevanceFilter(cfg RelevanceConfig) *RelevanceFilter {
	f := &RelevanceFilter{authors: make(map[string]struct{}, len(cfg.Authors))}
	for _, k := range cfg.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			f.keywords = append(f.keywords, k)
		}
	}
	for _, a := range cfg.Authors {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			f.authors[a] = struct{}{}
		}
	}
	for _, ex := range cfg.Exclude {
		if ex != "" {
			f.exclude = append(f.exclude, ex)
		}
	}
	return f
}

// Include 先按标识符后缀排除（区分大小写），再要求关键词或作者至少命中一项
func (f *RelevanceFilter) Include(p Paper) bool {
	for _, ex := range f.exclude {
		if strings.HasSuffix(p.Identifier, ex) {
			return false
		}
	}

	if f.containsKeyword(p.Description) || f.containsKeyword(p.Title) || f.containsKeyword(p.Subject) {
		return true
	}

	// 作者名需完全相等（忽略大小写），不做子串匹配
	for _, c := range p.Creators {
		if _, ok := f.authors[strings.ToLower(c)]; ok {
			return true
		}
	}
	return false
}

func (f *RelevanceFilter) containsKeyword(text string) bool {
	if text == "" {
		return false
	}
	text = strings.ToLower(text)
	for _, k := range f.keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
