package scoring

import "math"

func nan() float64 { return math.NaN() }

func leaf(v float64) *float64 { return &v }

// sampleXGBoost has two trees over two features:
// tree 0 splits f0 < 0 -> 1 else (f1 < 0 -> 2 else 3), missing -> yes
// tree 1 splits f0 < 0 -> 5 else 4
func sampleXGBoost() XGBoostParameters {
	return XGBoostParameters{
		BaseScore:   0.5,
		NumFeatures: 2,
		Trees: []TreeNode{
			{
				NodeID: 0, Split: "f0", SplitCondition: 0, Yes: 1, No: 2, Missing: 1,
				Children: []TreeNode{
					{NodeID: 1, Leaf: leaf(1)},
					{
						NodeID: 2, Split: "f1", SplitCondition: 0, Yes: 3, No: 4, Missing: 3,
						Children: []TreeNode{
							{NodeID: 3, Leaf: leaf(2)},
							{NodeID: 4, Leaf: leaf(3)},
						},
					},
				},
			},
			{
				NodeID: 0, Split: "f0", SplitCondition: 0, Yes: 1, No: 2, Missing: 2,
				Children: []TreeNode{
					{NodeID: 1, Leaf: leaf(5)},
					{NodeID: 2, Leaf: leaf(4)},
				},
			},
		},
	}
}
