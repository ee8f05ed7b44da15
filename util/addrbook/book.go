package addrbook

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve"
	_ "github.com/blevesearch/bleve/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/analysis/lang/en"
	"github.com/blevesearch/bleve/mapping"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/sahilm/fuzzy"
	"golang.org/x/text/cases"

	"github.com/tranvictor/carebook/config"
)

const (
	fieldAddress = "address"
	fieldName    = "name"
)

// Book is the provider directory backed by a json file of address -> name.
// Names are full-text indexed in memory; fuzzy matching over the names is
// the fallback when the index finds nothing.
type Book struct {
	mu      sync.RWMutex
	path    string
	entries map[common.Address]string
	index   bleve.Index
}

func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = en.AnalyzerName

	addressFieldMapping := bleve.NewTextFieldMapping()
	addressFieldMapping.Analyzer = "keyword"

	defaultMapping := bleve.NewDocumentMapping()
	defaultMapping.AddFieldMappingsAt(fieldName, textFieldMapping)
	defaultMapping.AddFieldMappingsAt(fieldAddress, addressFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", defaultMapping)
	indexMapping.DefaultAnalyzer = en.AnalyzerName
	return indexMapping
}

// NewBook builds a directory over entries. path is where Save writes, it
// may be empty.
func NewBook(path string, entries map[common.Address]string) (*Book, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("couldn't create provider index: %w", err)
	}
	b := &Book{
		path:    path,
		entries: map[common.Address]string{},
		index:   index,
	}
	batch := index.NewBatch()
	for addr, name := range entries {
		b.entries[addr] = name
		if err := batch.Index(addr.Hex(), b.document(addr, name)); err != nil {
			return nil, err
		}
	}
	if err := index.Batch(batch); err != nil {
		return nil, fmt.Errorf("couldn't index providers: %w", err)
	}
	return b, nil
}

// LoadBook reads the providers file at path. A missing file gives an empty
// directory.
func LoadBook(path string) (*Book, error) {
	entries := map[common.Address]string{}
	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Debug("No provider directory yet", "path", path)
	case err != nil:
		return nil, err
	default:
		raw := map[string]string{}
		if err := json.Unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("couldn't parse %s: %w", path, err)
		}
		for addr, name := range raw {
			if !common.IsHexAddress(addr) {
				log.Warn("Ignoring invalid provider address", "address", addr, "path", path)
				continue
			}
			entries[common.HexToAddress(addr)] = name
		}
	}
	return NewBook(path, entries)
}

// LoadDefault reads the providers file of the data dir.
func LoadDefault() (*Book, error) {
	return LoadBook(config.ProvidersFile())
}

// foldName normalizes a name for matching. Casers are stateful so one is
// built per call.
func foldName(name string) string {
	return cases.Fold().String(name)
}

func (b *Book) document(addr common.Address, name string) map[string]interface{} {
	return map[string]interface{}{
		fieldAddress: addr.Hex(),
		fieldName:    foldName(name),
	}
}

// Add puts a provider in the directory, replacing the name of a known
// address.
func (b *Book) Add(addr common.Address, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("provider name must not be empty")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.index.Index(addr.Hex(), b.document(addr, name)); err != nil {
		return err
	}
	b.entries[addr] = name
	return nil
}

// Save writes the directory back to its file.
func (b *Book) Save() error {
	if b.path == "" {
		return fmt.Errorf("provider directory has no file")
	}
	b.mu.RLock()
	raw := map[string]string{}
	for addr, name := range b.entries {
		raw[addr.Hex()] = name
	}
	b.mu.RUnlock()

	content, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(b.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(b.path, content, 0o600)
}

// Providers returns every entry ordered by name.
func (b *Book) Providers() []Provider {
	b.mu.RLock()
	defer b.mu.RUnlock()
	result := make([]Provider, 0, len(b.entries))
	for addr, name := range b.entries {
		result = append(result, Provider{Address: addr, Name: name})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

func (b *Book) Name(addr common.Address) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if name, ok := b.entries[addr]; ok {
		return name
	}
	return UnknownName
}

// Resolve returns the provider of a hex address, known or not, or the best
// match of a name.
func (b *Book) Resolve(input string) (Provider, error) {
	input = strings.TrimSpace(input)
	if common.IsHexAddress(input) {
		addr := common.HexToAddress(input)
		return Provider{Address: addr, Name: b.Name(addr)}, nil
	}
	if input == "" {
		return Provider{}, fmt.Errorf("%w an empty name", ErrNotFound)
	}
	if p, found := b.search(input); found {
		return p, nil
	}
	if p, found := b.fuzzyMatch(input); found {
		return p, nil
	}
	return Provider{}, fmt.Errorf("%w '%s'", ErrNotFound, input)
}

func (b *Book) search(input string) (Provider, bool) {
	folded := foldName(input)
	matchQuery := bleve.NewMatchPhraseQuery(folded)
	matchQuery.SetField(fieldName)
	fuzzyQuery := bleve.NewFuzzyQuery(folded)
	fuzzyQuery.SetField(fieldName)
	fuzzyQuery.Fuzziness = 1
	query := bleve.NewDisjunctionQuery(matchQuery, fuzzyQuery)
	request := bleve.NewSearchRequest(query)
	request.Size = 1

	b.mu.RLock()
	defer b.mu.RUnlock()
	results, err := b.index.Search(request)
	if err != nil {
		log.Warn("Provider search failed", "input", input, "err", err)
		return Provider{}, false
	}
	if len(results.Hits) == 0 {
		return Provider{}, false
	}
	addr := common.HexToAddress(results.Hits[0].ID)
	name, ok := b.entries[addr]
	if !ok {
		return Provider{}, false
	}
	return Provider{Address: addr, Name: name}, true
}

type fuzzySource []Provider

func (s fuzzySource) Len() int {
	return len(s)
}

func (s fuzzySource) String(i int) string {
	return strings.ReplaceAll(strings.ToLower(s[i].Name), " ", "_")
}

func (b *Book) fuzzyMatch(input string) (Provider, bool) {
	source := fuzzySource(b.Providers())
	matches := fuzzy.FindFrom(strings.ReplaceAll(foldName(input), " ", "_"), source)
	if len(matches) == 0 {
		return Provider{}, false
	}
	return source[matches[0].Index], true
}

func (b *Book) Close() error {
	return b.index.Close()
}
