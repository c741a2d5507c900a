package book

import "matchengine/decimal"

// color is a red-black tree node color.
type color uint8

const (
	red   color = 0
	black color = 1
)

// rbNode keys a PriceLevel by price. Adapted from the reference engine's
// order_book/rb_tree.go: same rotation/fixup shape, with an int64 price key
// replaced by a Decimal compared via decimal.Cmp.
type rbNode struct {
	key    decimal.Decimal
	level  *PriceLevel
	color  color
	left   *rbNode
	right  *rbNode
	parent *rbNode
}

// rbTree is a red-black tree mapping price -> *PriceLevel, giving O(log n)
// insertion/removal of a level and O(log n) access to the min/max level.
// The OrderBook caches the best bid/ask prices separately, so BestBid and
// BestAsk never walk the tree; BestLevel descends to the min/max node.
type rbTree struct {
	root *rbNode
	nilN *rbNode // sentinel (black)
	size int
}

func newRBTree() *rbTree {
	n := &rbNode{color: black}
	return &rbTree{root: n, nilN: n}
}

func (t *rbTree) Size() int { return t.size }

func (t *rbTree) find(price decimal.Decimal) *PriceLevel {
	n := t.root
	for n != t.nilN {
		c := decimal.Cmp(price, n.key)
		switch {
		case c < 0:
			n = n.left
		case c > 0:
			n = n.right
		default:
			return n.level
		}
	}
	return nil
}

func (t *rbTree) getOrCreate(price decimal.Decimal, scale int32) *PriceLevel {
	y := t.nilN
	x := t.root
	for x != t.nilN {
		y = x
		c := decimal.Cmp(price, x.key)
		if c < 0 {
			x = x.left
		} else if c > 0 {
			x = x.right
		} else {
			return x.level
		}
	}
	pl := newPriceLevel(price, scale)
	z := &rbNode{key: price, level: pl, color: red, left: t.nilN, right: t.nilN, parent: y}
	if y == t.nilN {
		t.root = z
	} else if decimal.Cmp(z.key, y.key) < 0 {
		y.left = z
	} else {
		y.right = z
	}
	t.insertFixup(z)
	t.size++
	return pl
}

func (t *rbTree) delete(price decimal.Decimal) bool {
	z := t.search(price)
	if z == t.nilN {
		return false
	}
	t.deleteNode(z)
	t.size--
	return true
}

func (t *rbTree) min() *PriceLevel {
	n := t.minNode(t.root)
	if n == t.nilN {
		return nil
	}
	return n.level
}

func (t *rbTree) max() *PriceLevel {
	n := t.maxNode(t.root)
	if n == t.nilN {
		return nil
	}
	return n.level
}

// walkAscending visits levels from lowest to highest price.
func (t *rbTree) walkAscending(fn func(*PriceLevel) bool) {
	for n := t.minNode(t.root); n != t.nilN; n = t.next(n) {
		if !fn(n.level) {
			return
		}
	}
}

// walkDescending visits levels from highest to lowest price.
func (t *rbTree) walkDescending(fn func(*PriceLevel) bool) {
	for n := t.maxNode(t.root); n != t.nilN; n = t.prev(n) {
		if !fn(n.level) {
			return
		}
	}
}

/* ---------------- internal helpers (rotations/fixups) ---------------- */

func (t *rbTree) search(price decimal.Decimal) *rbNode {
	n := t.root
	for n != t.nilN {
		c := decimal.Cmp(price, n.key)
		if c < 0 {
			n = n.left
		} else if c > 0 {
			n = n.right
		} else {
			return n
		}
	}
	return t.nilN
}

func (t *rbTree) minNode(n *rbNode) *rbNode {
	if n == t.nilN {
		return t.nilN
	}
	for n.left != t.nilN {
		n = n.left
	}
	return n
}

func (t *rbTree) maxNode(n *rbNode) *rbNode {
	if n == t.nilN {
		return t.nilN
	}
	for n.right != t.nilN {
		n = n.right
	}
	return n
}

func (t *rbTree) next(n *rbNode) *rbNode {
	if n == nil || n == t.nilN {
		return t.nilN
	}
	if n.right != t.nilN {
		return t.minNode(n.right)
	}
	p := n.parent
	for p != t.nilN && n == p.right {
		n = p
		p = p.parent
	}
	return p
}

func (t *rbTree) prev(n *rbNode) *rbNode {
	if n == nil || n == t.nilN {
		return t.nilN
	}
	if n.left != t.nilN {
		return t.maxNode(n.left)
	}
	p := n.parent
	for p != t.nilN && n == p.left {
		n = p
		p = p.parent
	}
	return p
}

func (t *rbTree) leftRotate(x *rbNode) {
	y := x.right
	x.right = y.left
	if y.left != t.nilN {
		y.left.parent = x
	}
	y.parent = x.parent
	if x.parent == t.nilN {
		t.root = y
	} else if x == x.parent.left {
		x.parent.left = y
	} else {
		x.parent.right = y
	}
	y.left = x
	x.parent = y
}

func (t *rbTree) rightRotate(x *rbNode) {
	y := x.left
	x.left = y.right
	if y.right != t.nilN {
		y.right.parent = x
	}
	y.parent = x.parent
	if x.parent == t.nilN {
		t.root = y
	} else if x == x.parent.right {
		x.parent.right = y
	} else {
		x.parent.left = y
	}
	y.right = x
	x.parent = y
}

func (t *rbTree) insertFixup(z *rbNode) {
	for z.parent.color == red {
		if z.parent == z.parent.parent.left {
			y := z.parent.parent.right
			if y.color == red {
				z.parent.color = black
				y.color = black
				z.parent.parent.color = red
				z = z.parent.parent
			} else {
				if z == z.parent.right {
					z = z.parent
					t.leftRotate(z)
				}
				z.parent.color = black
				z.parent.parent.color = red
				t.rightRotate(z.parent.parent)
			}
		} else {
			y := z.parent.parent.left
			if y.color == red {
				z.parent.color = black
				y.color = black
				z.parent.parent.color = red
				z = z.parent.parent
			} else {
				if z == z.parent.left {
					z = z.parent
					t.rightRotate(z)
				}
				z.parent.color = black
				z.parent.parent.color = red
				t.leftRotate(z.parent.parent)
			}
		}
	}
	t.root.color = black
}

func (t *rbTree) transplant(u, v *rbNode) {
	if u.parent == t.nilN {
		t.root = v
	} else if u == u.parent.left {
		u.parent.left = v
	} else {
		u.parent.right = v
	}
	v.parent = u.parent
}

func (t *rbTree) deleteNode(z *rbNode) {
	y := z
	yOriginalColor := y.color
	var x *rbNode

	if z.left == t.nilN {
		x = z.right
		t.transplant(z, z.right)
	} else if z.right == t.nilN {
		x = z.left
		t.transplant(z, z.left)
	} else {
		y = t.minNode(z.right)
		yOriginalColor = y.color
		x = y.right
		if y.parent == z {
			x.parent = y
		} else {
			t.transplant(y, y.right)
			y.right = z.right
			y.right.parent = y
		}
		t.transplant(z, y)
		y.left = z.left
		y.left.parent = y
		y.color = z.color
	}
	if yOriginalColor == black {
		t.deleteFixup(x)
	}
}

func (t *rbTree) deleteFixup(x *rbNode) {
	for x != t.root && x.color == black {
		if x == x.parent.left {
			w := x.parent.right
			if w.color == red {
				w.color = black
				x.parent.color = red
				t.leftRotate(x.parent)
				w = x.parent.right
			}
			if w.left.color == black && w.right.color == black {
				w.color = red
				x = x.parent
			} else {
				if w.right.color == black {
					w.left.color = black
					w.color = red
					t.rightRotate(w)
					w = x.parent.right
				}
				w.color = x.parent.color
				x.parent.color = black
				w.right.color = black
				t.leftRotate(x.parent)
				x = t.root
			}
		} else {
			w := x.parent.left
			if w.color == red {
				w.color = black
				x.parent.color = red
				t.rightRotate(x.parent)
				w = x.parent.left
			}
			if w.right.color == black && w.left.color == black {
				w.color = red
				x = x.parent
			} else {
				if w.left.color == black {
					w.right.color = black
					w.color = red
					t.leftRotate(w)
					w = x.parent.left
				}
				w.color = x.parent.color
				x.parent.color = black
				w.left.color = black
				t.rightRotate(x.parent)
				x = t.root
			}
		}
	}
	x.color = black
}
