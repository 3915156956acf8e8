package model

import "sort"

// BuildCommentTree groups flat parent-referencing rows into a tree. Row order
// is kept among siblings. Rows whose parent is missing are promoted to the top
// level; rows caught in a reference cycle are promoted as well so nothing is
// dropped. Pinned top-level comments sort first.
func BuildCommentTree(rows []Comment) []Comment {
	present := make(map[string]bool, len(rows))
	for _, r := range rows {
		present[r.ID] = true
	}

	children := make(map[string][]int)
	var roots []int
	for i, r := range rows {
		if r.ParentID == nil || *r.ParentID == r.ID || !present[*r.ParentID] {
			roots = append(roots, i)
			continue
		}
		children[*r.ParentID] = append(children[*r.ParentID], i)
	}

	placed := make([]bool, len(rows))
	var build func(i int) Comment
	build = func(i int) Comment {
		placed[i] = true
		c := rows[i]
		c.Replies = []Comment{}
		for _, j := range children[c.ID] {
			if placed[j] {
				continue
			}
			c.Replies = append(c.Replies, build(j))
		}
		return c
	}

	tree := make([]Comment, 0, len(roots))
	for _, i := range roots {
		tree = append(tree, build(i))
	}
	for i := range rows {
		if !placed[i] {
			tree = append(tree, build(i))
		}
	}
	return SortPinnedFirst(tree)
}

// SortPinnedFirst returns a copy with pinned comments ahead of the rest at
// every level. The relative order within each group is preserved.
func SortPinnedFirst(comments []Comment) []Comment {
	out := make([]Comment, len(comments))
	copy(out, comments)
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].IsPinned && !out[b].IsPinned
	})
	for i := range out {
		if len(out[i].Replies) > 0 {
			out[i].Replies = SortPinnedFirst(out[i].Replies)
		}
	}
	return out
}

// FindComment returns a pointer into the tree for in-place mutation.
func FindComment(comments []Comment, id string) *Comment {
	for i := range comments {
		if comments[i].ID == id {
			return &comments[i]
		}
		if found := FindComment(comments[i].Replies, id); found != nil {
			return found
		}
	}
	return nil
}

// InsertReply appends reply under the comment with parentID.
func InsertReply(comments []Comment, parentID string, reply Comment) bool {
	parent := FindComment(comments, parentID)
	if parent == nil {
		return false
	}
	if reply.Replies == nil {
		reply.Replies = []Comment{}
	}
	parent.Replies = append(parent.Replies, reply)
	return true
}

// LikeComment bumps both the shared and the local like counters.
func LikeComment(comments []Comment, id string) bool {
	c := FindComment(comments, id)
	if c == nil {
		return false
	}
	c.Likes++
	c.UserLikes++
	return true
}

// PinComment pins id and clears every other pin in the tree. Pinning an
// already pinned comment unpins it. A missing id leaves the tree untouched.
func PinComment(comments []Comment, id string) bool {
	target := FindComment(comments, id)
	if target == nil {
		return false
	}
	wasPinned := target.IsPinned
	clearPins(comments)
	target.IsPinned = !wasPinned
	return true
}

func clearPins(comments []Comment) {
	for i := range comments {
		comments[i].IsPinned = false
		clearPins(comments[i].Replies)
	}
}

// CountPinned counts pinned comments at every depth.
func CountPinned(comments []Comment) int {
	n := 0
	for _, c := range comments {
		if c.IsPinned {
			n++
		}
		n += CountPinned(c.Replies)
	}
	return n
}

// CloneComments deep-copies a comment tree.
func CloneComments(comments []Comment) []Comment {
	if comments == nil {
		return nil
	}
	out := make([]Comment, len(comments))
	for i, c := range comments {
		out[i] = c
		if c.ParentID != nil {
			pid := *c.ParentID
			out[i].ParentID = &pid
		}
		out[i].Replies = CloneComments(c.Replies)
	}
	return out
}
