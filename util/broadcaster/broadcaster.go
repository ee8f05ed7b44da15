package broadcaster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"

	cbcommon "github.com/tranvictor/carebook/common"
)

const TIMEOUT time.Duration = 4 * time.Second

var ErrNoNodes = errors.New("no node to broadcast to")

// Broadcaster takes a signed tx and try to broadcast it to all
// nodes that it manages as fast as possible.
type Broadcaster struct {
	clients map[string]*rpc.Client
}

func (b *Broadcaster) GetNodes() map[string]*rpc.Client {
	return b.clients
}

func (b *Broadcaster) broadcast(ctx context.Context, client *rpc.Client, data string) error {
	return client.CallContext(ctx, nil, "eth_sendRawTransaction", data)
}

// BroadcastTx returns the tx hash and whether at least one node accepted
// the tx. When none did, err joins every node's error.
func (b *Broadcaster) BroadcastTx(ctx context.Context, tx *types.Transaction) (string, bool, error) {
	data, err := tx.MarshalBinary()
	if err != nil {
		return "", false, fmt.Errorf("tx is not valid, couldn't use rlp to encode it: %w", err)
	}
	return b.Broadcast(ctx, hexutil.Encode(data))
}

// data must be hex encoded of the signed tx
func (b *Broadcaster) Broadcast(ctx context.Context, data string) (string, bool, error) {
	hash := cbcommon.RawTxToHash(data)
	if len(b.clients) == 0 {
		return hash, false, ErrNoNodes
	}
	timeout, cancel := context.WithTimeout(ctx, TIMEOUT)
	defer cancel()

	tasks := []func() error{}
	for name := range b.clients {
		cli := b.clients[name]
		nodeName := name
		tasks = append(tasks, func() error {
			if err := b.broadcast(timeout, cli, data); err != nil {
				return fmt.Errorf("%s: %w", nodeName, err)
			}
			return nil
		})
	}
	err, numErrs := cbcommon.RunParallel(tasks...)
	if numErrs == len(b.clients) {
		return hash, false, err
	}
	if err != nil {
		log.Debug("Some nodes refused the tx", "hash", hash, "err", err)
	}
	return hash, true, nil
}

func NewGenericBroadcaster(nodes map[string]string) *Broadcaster {
	clients := map[string]*rpc.Client{}
	for name, url := range nodes {
		client, err := rpc.Dial(url)
		if err != nil {
			log.Warn("Couldn't connect to node", "node", name, "url", url, "err", err)
			continue
		}
		clients[name] = client
	}
	return &Broadcaster{clients: clients}
}

func NewBroadcasterWithClients(clients map[string]*rpc.Client) *Broadcaster {
	return &Broadcaster{clients: clients}
}
