// Package walker provides depth-first traversal of the parts of a message.
//
// Two callback shapes are offered: Func receives each part with its depth
// and sibling index, which suits filtering and display; Processor receives
// each part with its ancestry, which suits transformations that need to
// know what encloses the part. Either callback may return ErrPrune to keep
// the traversal out of the current part's sub-parts.
package walker

import (
	"errors"

	"github.com/josusky/vmime/message"
)

// ErrPrune may be returned by a callback to skip the sub-parts of the part
// just visited. The traversal continues with the next sibling and does not
// fail.
var ErrPrune = errors.New("prune walk subtree")

// Func is a callback invoked for each part of a message. The depth is the
// number of enclosing parts and i is the position of the part within its
// parent, both zero for the part the walk started from.
type Func func(depth, i int, part message.Part) error

// Walk visits the message and every part below it in depth-first order,
// parents ahead of their children, calling the function for each. An error
// other than ErrPrune returned by the callback stops the walk immediately
// and is returned.
func (w Func) Walk(msg message.Generic) error {
	return w.visit(0, 0, msg)
}

func (w Func) visit(depth, i int, part message.Part) error {
	switch err := w(depth, i, part); {
	case errors.Is(err, ErrPrune):
		return nil
	case err != nil:
		return err
	}

	for ci, sub := range part.GetParts() {
		if err := w.visit(depth+1, ci, sub); err != nil {
			return err
		}
	}

	return nil
}

// WalkLeaves walks the message but only calls the function for the
// content-bearing leaf parts, skipping the containers on the way down.
func (w Func) WalkLeaves(msg message.Generic) error {
	leaves := Func(func(depth, i int, part message.Part) error {
		if part.IsMultipart() {
			return nil
		}
		return w(depth, i, part)
	})
	return leaves.Walk(msg)
}

// WalkContainers walks the message but only calls the function for the
// parts that hold sub-parts.
func (w Func) WalkContainers(msg message.Generic) error {
	containers := Func(func(depth, i int, part message.Part) error {
		if !part.IsMultipart() {
			return nil
		}
		return w(depth, i, part)
	})
	return containers.Walk(msg)
}

// Processor is a callback that receives each part along with its ancestry,
// outermost enclosing part first. The ancestry is empty for the part the
// processing started from. The slice is reused between calls; a Processor
// that wants to keep it must copy it.
type Processor func(part message.Part, parents []message.Part) error

// Process visits the message tree depth-first, handing each part and its
// ancestry to the processor. Returning ErrPrune from the processor skips
// the sub-parts of the current part; any other error stops the processing
// immediately and is returned.
func Process(p Processor, msg message.Part) error {
	parents := make([]message.Part, 0, 8)

	var descend func(part message.Part) error
	descend = func(part message.Part) error {
		switch err := p(part, parents); {
		case errors.Is(err, ErrPrune):
			return nil
		case err != nil:
			return err
		}

		parents = append(parents, part)
		for _, sub := range part.GetParts() {
			if err := descend(sub); err != nil {
				return err
			}
		}
		parents = parents[:len(parents)-1]

		return nil
	}

	return descend(msg)
}
