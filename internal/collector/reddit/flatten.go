package reddit

import "encoding/json"

// Reddit listing shapes, trimmed to the fields the collector reads. Replies
// is a RawMessage because the API alternates between a nested listing and
// the literal empty string.

type listing struct {
	Data struct {
		Children []node `json:"children"`
	} `json:"data"`
}

type node struct {
	Kind string `json:"kind"`
	Data struct {
		ID          string          `json:"id"`
		Title       string          `json:"title"`
		Score       int             `json:"score"`
		NumComments int             `json:"num_comments"`
		Permalink   string          `json:"permalink"`
		Body        string          `json:"body"`
		Replies     json.RawMessage `json:"replies"`
	} `json:"data"`
}

// flatten walks a reply forest depth-first with an explicit stack: each
// comment contributes its text, then its children in their given order,
// before the next sibling. The stack bounds memory for pathologically deep
// reply chains where recursion would not.
func flatten(forest []node) []string {
	var texts []string

	stack := make([]node, 0, len(forest))
	pushReversed(&stack, forest)

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		// "more" stubs and deleted bodies carry no text.
		if n.Kind == "t1" && n.Data.Body != "" {
			texts = append(texts, n.Data.Body)
		}
		pushReversed(&stack, children(n))
	}
	return texts
}

// children decodes a node's reply listing, tolerating the API's
// empty-string encoding for "no replies".
func children(n node) []node {
	raw := n.Data.Replies
	if len(raw) == 0 || string(raw) == `""` || string(raw) == "null" {
		return nil
	}
	var sub listing
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil
	}
	return sub.Data.Children
}

// pushReversed pushes nodes so the stack pops them in original order.
func pushReversed(stack *[]node, nodes []node) {
	for i := len(nodes) - 1; i >= 0; i-- {
		*stack = append(*stack, nodes[i])
	}
}
