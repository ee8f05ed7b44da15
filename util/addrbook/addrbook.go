// Package addrbook is the provider directory: it maps healthcare provider
// names to the addresses the owner authorizes, and labels addresses for
// display.
//
// Production code uses [Book], loaded from the providers file and indexed
// with bleve. Tests inject [Map], a plain map that resolves names without
// any index.
package addrbook

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

const UnknownName = "unknown"

var ErrNotFound = errors.New("no provider matches")

// Provider is one entry of the directory.
type Provider struct {
	Address common.Address
	Name    string
}

// Resolver turns user input, either a hex address or words of a provider
// name, into an address.
type Resolver interface {
	Resolve(input string) (Provider, error)
}

// Namer labels an address. Unknown addresses are labelled UnknownName.
type Namer interface {
	Name(addr common.Address) string
}
