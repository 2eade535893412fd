package model

// Node identifies a manageable machine in the fleet. The identifier is
// opaque to this system; the fleet manager assigns it and equality is by
// identity only.
type Node string

func (n Node) String() string { return string(n) }
