package addrbook

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Map is a lightweight Resolver and Namer for tests. It maps lower-cased
// addresses to provider names; names are matched exactly, ignoring case.
//
// Example:
//
//	r := addrbook.Map{
//	    "0x00000000000000000000000000000000000000a1": "City Clinic",
//	}
type Map map[string]string

func (m Map) Name(addr common.Address) string {
	if name, ok := m[strings.ToLower(addr.Hex())]; ok {
		return name
	}
	return UnknownName
}

func (m Map) Resolve(input string) (Provider, error) {
	input = strings.TrimSpace(input)
	if common.IsHexAddress(input) {
		addr := common.HexToAddress(input)
		return Provider{Address: addr, Name: m.Name(addr)}, nil
	}
	for addr, name := range m {
		if strings.EqualFold(name, input) {
			return Provider{Address: common.HexToAddress(addr), Name: name}, nil
		}
	}
	return Provider{}, fmt.Errorf("%w '%s'", ErrNotFound, input)
}
