package ecs

import "unsafe"

const blockSize = 64

// column holds every value of one component kind inside an archetype.
type column interface {
	push(value any)
	// at returns the address of the value at index.
	at(index int) unsafe.Pointer
	// get returns the value at index as a *T.
	get(index int) any
	// load copies the value at index to dst, which must point at a T.
	load(index int, dst unsafe.Pointer)
	len() int
}

// blockColumn stores values in fixed size blocks. Blocks never move, so
// pointers into a column stay valid while entities are spawned.
type blockColumn[T any] struct {
	blocks []*[blockSize]T
	count  int
}

func (c *blockColumn[T]) push(value any) {
	var v T
	switch value := value.(type) {
	case T:
		v = value
	case *T:
		v = *value
	default:
		panic("component value does not match its column")
	}

	block, slot := c.count/blockSize, c.count%blockSize
	if block == len(c.blocks) {
		c.blocks = append(c.blocks, new([blockSize]T))
	}
	c.blocks[block][slot] = v
	c.count++
}

func (c *blockColumn[T]) ref(index int) *T {
	return &c.blocks[index/blockSize][index%blockSize]
}

func (c *blockColumn[T]) at(index int) unsafe.Pointer {
	return unsafe.Pointer(c.ref(index))
}

func (c *blockColumn[T]) get(index int) any {
	return c.ref(index)
}

func (c *blockColumn[T]) load(index int, dst unsafe.Pointer) {
	*(*T)(dst) = *c.ref(index)
}

func (c *blockColumn[T]) len() int {
	return c.count
}
