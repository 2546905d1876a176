package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dbqr-qa/grader/internal/services"
)

// GoldFiles loads the per-stage gold label sets from
// <root>/gold/compiled/<stage>.json. Gold labels are read-only reference
// documents and stay file-backed regardless of the store driver.
type GoldFiles struct {
	root string
}

func NewGoldFiles(root string) *GoldFiles {
	return &GoldFiles{root: root}
}

func (g *GoldFiles) LoadGold(stage string) (services.GoldLabelSet, error) {
	path := filepath.Join(g.root, "gold", "compiled", stage+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gold labels for %s: %w", stage, err)
	}
	var labels services.GoldLabelSet
	if err := json.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("decode gold labels for %s: %w", stage, err)
	}
	return labels, nil
}
