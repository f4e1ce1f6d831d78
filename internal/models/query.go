package models

import (
	"fmt"
	"net/url"
	"strings"
)

// SearchQuery 搜索关键词
// 运行期间不可变,同时决定搜索URL和输出子目录名
type SearchQuery string

// NewSearchQuery 将命令行位置参数拼接为查询
func NewSearchQuery(words []string) (SearchQuery, error) {
	q := strings.TrimSpace(strings.Join(words, " "))
	if q == "" {
		return "", fmt.Errorf("查询关键词不能为空")
	}
	return SearchQuery(q), nil
}

// String 实现fmt.Stringer
func (q SearchQuery) String() string {
	return string(q)
}

// Escaped 百分号编码后的查询 (空格编码为%20, &和=等同样编码)
func (q SearchQuery) Escaped() string {
	return strings.ReplaceAll(url.QueryEscape(string(q)), "+", "%20")
}

// FolderName 输出目录名: 空格替换为下划线
// 路径分隔符同样替换,"."和".."替换为下划线,保证结果总是输出根目录下的一级子目录
func (q SearchQuery) FolderName() string {
	r := strings.NewReplacer(" ", "_", "/", "_", `\`, "_")
	name := r.Replace(string(q))
	switch name {
	case "":
		return "_"
	case ".", "..":
		return strings.Repeat("_", len(name))
	}
	return name
}

// SearchURL 根据模板构造搜索URL,模板中每个%s都替换为编码后的查询
func (q SearchQuery) SearchURL(template string) (string, error) {
	if !strings.Contains(template, "%s") {
		return "", fmt.Errorf("搜索URL模板缺少%%s占位符: %s", template)
	}
	searchURL := strings.ReplaceAll(template, "%s", q.Escaped())
	if err := ValidateURL(searchURL); err != nil {
		return "", err
	}
	return searchURL, nil
}
