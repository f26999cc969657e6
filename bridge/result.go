package bridge

import "github.com/cjbrigato/go-vtm/ids"

// ResultKind enumerates every audio->editor result variant (§4.10).
type ResultKind int

const (
	ResultOk ResultKind = iota
	ResultError
	ResultNodeCreated
)

// ResultEvent is reported on the result channel for the editor to consume
// at its convenience; non-blocking on both ends (§4.10).
type ResultEvent struct {
	Kind    ResultKind
	Err     error
	NodeID  ids.NodeID
}
