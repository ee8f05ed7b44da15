package accounts

import (
	"fmt"
	"strings"
)

type FuzzySource []AccDesc

func (s FuzzySource) Len() int {
	return len(s)
}

func (s FuzzySource) String(i int) string {
	return fmt.Sprintf("%s_%s", s[i].Address, strings.ReplaceAll(s[i].Desc, " ", "_"))
}

func NewFuzzySource() FuzzySource {
	return FuzzySource(SortedAccounts())
}
