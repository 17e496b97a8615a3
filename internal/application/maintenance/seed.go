package maintenance

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

//go:embed seed/books.json
var defaultSeed []byte

// SeedEntry 种子列表中的一项
type SeedEntry struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Genre  string `json:"genre"`
}

// LoadSeed 读取种子列表,path为空时使用内置列表
// 文件不可读或不是合法JSON数组时返回error(任务整体失败)
func LoadSeed(path string) ([]SeedEntry, error) {
	data := defaultSeed
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取种子文件失败: %w", err)
		}
		data = b
	}

	var entries []SeedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("解析种子文件失败: %w", err)
	}
	return entries, nil
}
