package networks

import (
	"os"
	"strings"
	"sync"
)

var mu sync.Mutex

// Nodes returns the json-rpc nodes to use for n. An explicit url wins, then
// the network's env var, then its default nodes.
func Nodes(n Network, url string) map[string]string {
	if url = strings.TrimSpace(url); url != "" {
		return map[string]string{"custom-node": url}
	}
	if envNode := strings.TrimSpace(os.Getenv(n.GetNodeVariableName())); envNode != "" {
		return map[string]string{"env-node": envNode}
	}
	return n.GetDefaultNodes()
}
