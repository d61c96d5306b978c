package scoring

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TreeNode is one node of an XGBoost JSON tree dump. Leaves carry Leaf and
// no children.
type TreeNode struct {
	NodeID         int        `json:"nodeid" yaml:"nodeid"`
	Split          string     `json:"split,omitempty" yaml:"split,omitempty"`
	SplitCondition float64    `json:"split_condition,omitempty" yaml:"split_condition,omitempty"`
	Yes            int        `json:"yes,omitempty" yaml:"yes,omitempty"`
	No             int        `json:"no,omitempty" yaml:"no,omitempty"`
	Missing        int        `json:"missing,omitempty" yaml:"missing,omitempty"`
	Leaf           *float64   `json:"leaf,omitempty" yaml:"leaf,omitempty"`
	Children       []TreeNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// XGBoostParameters hold a gradient boosted regression ensemble
type XGBoostParameters struct {
	BaseScore    float64    `json:"base_score" yaml:"base_score"`
	NumFeatures  int        `json:"num_features" yaml:"num_features"`
	FeatureNames []string   `json:"feature_names,omitempty" yaml:"feature_names,omitempty"`
	Trees        []TreeNode `json:"trees" yaml:"trees"`
}

// compiledNode is a flattened tree node; feature < 0 marks a leaf
type compiledNode struct {
	feature   int
	threshold float64
	yes       int
	no        int
	missing   int
	leaf      float64
}

// XGBoostModel evaluates a tree dump: base score plus the sum of one leaf per tree
type XGBoostModel struct {
	baseScore   float64
	numFeatures int
	trees       [][]compiledNode
}

// NewXGBoostModel compiles the tree dump. Split features are either
// "f<index>" or one of FeatureNames.
func NewXGBoostModel(params XGBoostParameters) (*XGBoostModel, error) {
	if len(params.Trees) == 0 {
		return nil, fmt.Errorf("xgboost model has no trees")
	}

	numFeatures := params.NumFeatures
	if numFeatures == 0 {
		numFeatures = len(params.FeatureNames)
	}
	if numFeatures <= 0 {
		return nil, fmt.Errorf("xgboost model must declare num_features or feature_names")
	}

	names := make(map[string]int, len(params.FeatureNames))
	for i, name := range params.FeatureNames {
		names[name] = i
	}

	m := &XGBoostModel{baseScore: params.BaseScore, numFeatures: numFeatures}
	for i, root := range params.Trees {
		tree, err := compileTree(root, names, numFeatures)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		m.trees = append(m.trees, tree)
	}
	return m, nil
}

func compileTree(root TreeNode, names map[string]int, numFeatures int) ([]compiledNode, error) {
	byID := make(map[int]TreeNode)
	var walk func(n TreeNode) error
	walk = func(n TreeNode) error {
		if _, dup := byID[n.NodeID]; dup {
			return fmt.Errorf("duplicate node id %d", n.NodeID)
		}
		byID[n.NodeID] = n
		for _, c := range n.Children {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}

	nodes := make([]compiledNode, len(byID))
	for id, n := range byID {
		if id < 0 || id >= len(nodes) {
			return nil, fmt.Errorf("node id %d out of range", id)
		}
		if n.Leaf != nil {
			nodes[id] = compiledNode{feature: -1, leaf: *n.Leaf}
			continue
		}

		feature, err := resolveFeature(n.Split, names, numFeatures)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", id, err)
		}
		for _, child := range []int{n.Yes, n.No, n.Missing} {
			if _, ok := byID[child]; !ok {
				return nil, fmt.Errorf("node %d references missing child %d", id, child)
			}
		}
		nodes[id] = compiledNode{
			feature:   feature,
			threshold: n.SplitCondition,
			yes:       n.Yes,
			no:        n.No,
			missing:   n.Missing,
		}
	}
	return nodes, nil
}

func resolveFeature(split string, names map[string]int, numFeatures int) (int, error) {
	if idx, ok := names[split]; ok {
		return idx, nil
	}
	if rest, ok := strings.CutPrefix(split, "f"); ok {
		if idx, err := strconv.Atoi(rest); err == nil && idx >= 0 && idx < numFeatures {
			return idx, nil
		}
	}
	return 0, fmt.Errorf("unknown split feature %q", split)
}

func (m *XGBoostModel) Predict(normalized []float64) (float64, error) {
	if err := checkArity(m, normalized); err != nil {
		return 0, err
	}

	score := m.baseScore
	for _, tree := range m.trees {
		score += evalTree(tree, normalized)
	}
	if err := checkFinite(ModelTypeXGBoost, score); err != nil {
		return 0, err
	}
	return score, nil
}

func evalTree(tree []compiledNode, row []float64) float64 {
	id := 0
	// A well-formed tree reaches a leaf in at most len(tree) steps
	for range len(tree) {
		n := tree[id]
		if n.feature < 0 {
			return n.leaf
		}
		v := row[n.feature]
		switch {
		case math.IsNaN(v):
			id = n.missing
		case v < n.threshold:
			id = n.yes
		default:
			id = n.no
		}
	}
	return 0
}

func (m *XGBoostModel) NumFeatures() int {
	return m.numFeatures
}

func (m *XGBoostModel) Type() string {
	return ModelTypeXGBoost
}
